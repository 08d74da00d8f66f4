package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentrep/portal/internal/web/handler/handlertest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	return New(handlertest.NewDeps(t))
}

func TestNew_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestCheckAlive(t *testing.T) {
	s := newTestService(t)

	resp, body := handlertest.Do(t, s.App, handlertest.Get(CheckAlivePath))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	s.alive.Store(false)

	resp, _ = handlertest.Do(t, s.App, handlertest.Get(CheckAlivePath))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s := newTestService(t)

	resp, body := handlertest.Do(t, s.App, handlertest.Get(MetricsPath))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestStaticFiles(t *testing.T) {
	s := newTestService(t)

	resp, body := handlertest.Do(t, s.App, handlertest.Get("/static/css/portal.css"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".card")
}

func TestPublicPages_Render(t *testing.T) {
	s := newTestService(t)

	for _, tc := range []struct {
		path string
		want string
	}{
		{"/", "Announcements"},
		{"/contact", "Contact your student rep"},
		{"/files", "No files published yet."},
		{"/login", "Admin login"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := handlertest.Do(t, s.App, handlertest.Get(tc.path))
			require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
			assert.Contains(t, body, tc.want)
			assert.Contains(t, body, "Test Portal")
		})
	}
}

func TestAdmin_RedirectsAnonymous(t *testing.T) {
	s := newTestService(t)

	resp, _ := handlertest.Do(t, s.App, handlertest.Get("/admin"))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))
}

func TestAdmin_LoginAndRender(t *testing.T) {
	s := newTestService(t)

	resp, _ := handlertest.Do(t, s.App,
		handlertest.PostForm("/login", url.Values{"password": {handlertest.Password}}))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	resp, _ = handlertest.Do(t, s.App,
		handlertest.PostForm("/admin/infos", url.Values{"title": {"Exam dates"}, "body": {"See the board."}}),
		cookies...)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, body := handlertest.Do(t, s.App, handlertest.Get("/admin"), cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Admin panel")
	assert.Contains(t, body, "Exam dates")
	assert.Contains(t, body, "Logout")

	_, body = handlertest.Do(t, s.App, handlertest.Get("/"))
	assert.Contains(t, body, "Exam dates")
	assert.Contains(t, body, "See the board.")
}

func TestContact_InvalidFormRendersFields(t *testing.T) {
	s := newTestService(t)

	req := handlertest.PostForm("/contact", url.Values{"email": {"not-an-email"}})
	resp, body := handlertest.Do(t, s.App, req)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(body, `class="invalid"`))
	assert.Contains(t, body, "not-an-email")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestService(t)

	resp, _ := handlertest.Do(t, s.App, handlertest.Get("/nope"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
