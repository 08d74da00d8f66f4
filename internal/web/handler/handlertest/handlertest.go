// Package handlertest provides the fixtures shared by the handler tests.
package handlertest

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/studentrep/portal/internal/auth"
	"github.com/studentrep/portal/internal/blob"
	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/kvstore"
	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	authmw "github.com/studentrep/portal/internal/web/middleware/auth"
	"github.com/studentrep/portal/internal/web/session"
)

const (
	// Password is the admin password accepted by NewDeps.
	Password = "correct horse"

	// LoginPath logs the client in without going through a handler.
	LoginPath = "/_test/login"
)

// Views is a minimal fiber.Views engine. It writes the template name, then
// the "Error" and "Status" values of the data map, one per line.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data any, _ ...string) error {
	_, _ = io.WriteString(w, name)

	if m, ok := data.(fiber.Map); ok {
		for _, k := range []string{"Error", "Status"} {
			if v, exists := m[k]; exists && v != nil && v != "" {
				_, _ = io.WriteString(w, "\n"+v.(string))
			}
		}
	}

	return nil
}

// NewDeps returns dependencies on in-memory storage with a password admin.
func NewDeps(t *testing.T) *handler.Deps {
	t.Helper()

	blobs, err := blob.NewFS(afero.NewMemMapFs(), "/blobs")
	require.NoError(t, err)

	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)

	a, err := auth.NewPassword(hash)
	require.NoError(t, err)

	cfg := &config.Config{
		Title: "Test Portal",
		Webserver: config.Webserver{
			URL:       "http://localhost",
			Port:      3000,
			BodyLimit: 4 << 20,
			Session:   config.Session{ExpiryTime: time.Hour},
			Login:     config.Login{MaxAttempts: 100, Window: time.Minute},
		},
	}

	return &handler.Deps{
		Cfg:      cfg,
		Store:    portal.New(kvstore.NewMemory(), blobs),
		Auth:     a,
		Sessions: session.New(memory.New(), session.Config{Expiry: time.Hour}),
	}
}

// NewApp returns an app with the middleware chain of the web service.
func NewApp(deps *handler.Deps) *fiber.App {
	app := fiber.New(fiber.Config{Views: Views{}, BodyLimit: deps.Cfg.Webserver.BodyLimit})
	app.Use(authmw.Locals(deps.Sessions, deps.Cfg.Title))
	app.Post(LoginPath, func(c *fiber.Ctx) error { return deps.Sessions.Login(c) })

	return app
}

// Login returns the cookies of a logged in admin session.
func Login(t *testing.T, app *fiber.App) []*http.Cookie {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, LoginPath, nil), -1)
	require.NoError(t, err)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	return cookies
}

// Do sends req with cookies and returns the response and its body.
func Do(t *testing.T, app *fiber.App, req *http.Request, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// Get builds a GET request.
func Get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

// PostForm builds a url encoded POST request.
func PostForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return req
}

// File is a multipart file part.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// PostMultipart builds a multipart POST request.
func PostMultipart(t *testing.T, target string, fields map[string]string, files ...File) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)

		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	return req
}
