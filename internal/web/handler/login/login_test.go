package login

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/handler/handlertest"
)

func newTestApp(t *testing.T, mutate ...func(*handler.Deps)) *fiber.App {
	t.Helper()

	deps := handlertest.NewDeps(t)
	for _, m := range mutate {
		m(deps)
	}

	app := handlertest.NewApp(deps)

	var s Service
	s.Init(app, deps)

	return app
}

func TestGet(t *testing.T) {
	app := newTestApp(t)

	resp, body := handlertest.Do(t, app, handlertest.Get(Path))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)

	// already logged in
	resp, _ = handlertest.Do(t, app, handlertest.Get(Path), handlertest.Login(t, app)...)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, AdminPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestPost_Success_PersistsAcrossRequests(t *testing.T) {
	app := newTestApp(t)

	resp, _ := handlertest.Do(t, app, handlertest.PostForm(Path, url.Values{"password": {handlertest.Password}}))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, AdminPath, resp.Header.Get(fiber.HeaderLocation))

	cookies := resp.Cookies()
	assert.NotEmpty(t, cookies)

	// a new request carrying the cookie is still logged in
	resp, _ = handlertest.Do(t, app, handlertest.Get(Path), cookies...)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestPost_Rejected(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "wrong password", form: url.Values{"password": {"guess"}}},
		{name: "empty password", form: url.Values{"password": {""}}},
		{name: "no fields", form: url.Values{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)

			resp, body := handlertest.Do(t, app, handlertest.PostForm(Path, tc.form))
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, body, ErrInvalidCredentials.Error())

			for _, ck := range resp.Cookies() {
				assert.NotEqual(t, "session", ck.Name, "no session for a rejected login")
			}
		})
	}
}

func TestPost_InvalidForm(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, body := handlertest.Do(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, ErrInvalidFormData.Error())
}

func TestPost_RateLimited(t *testing.T) {
	app := newTestApp(t, func(d *handler.Deps) { d.Cfg.Webserver.Login.MaxAttempts = 2 })

	for range 2 {
		resp, _ := handlertest.Do(t, app, handlertest.PostForm(Path, url.Values{"password": {"guess"}}))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := handlertest.Do(t, app, handlertest.PostForm(Path, url.Values{"password": {handlertest.Password}}))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, ErrTooManyAttempts.Error())
}
