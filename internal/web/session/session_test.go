package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(m *Manager) *fiber.App {
	app := fiber.New()

	app.Get("/state", func(c *fiber.Ctx) error {
		if m.IsAdmin(c) {
			return c.SendString("admin")
		}

		return c.SendString("visitor")
	})
	app.Post("/login", func(c *fiber.Ctx) error { return m.Login(c) })
	app.Post("/logout", func(c *fiber.Ctx) error { return m.Logout(c) })

	return app
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}

	t.Fatalf("no %s cookie in response", CookieName)

	return nil
}

func state(t *testing.T, app *fiber.App, ck *http.Cookie) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	if ck != nil {
		req.AddCookie(ck)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)

	return buf.String()
}

func TestLoginLogout(t *testing.T) {
	storage := memory.New()
	m := New(storage, Config{Expiry: time.Hour})
	app := newTestApp(m)

	assert.Equal(t, "visitor", state(t, app, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)

	ck := sessionCookie(t, resp)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "admin", state(t, app, ck))

	// the flag lives in the storage, a new manager on it sees the login
	assert.Equal(t, "admin", state(t, newTestApp(New(storage, Config{Expiry: time.Hour})), ck))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(ck)

	_, err = app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, "visitor", state(t, app, ck))
}

func TestUnknownCookie(t *testing.T) {
	app := newTestApp(New(memory.New(), Config{Expiry: time.Hour}))

	assert.Equal(t, "visitor", state(t, app, &http.Cookie{Name: CookieName, Value: "forged"}))
}

func TestNew_NilStorage(t *testing.T) {
	assert.Panics(t, func() { New(nil, Config{}) })
}
