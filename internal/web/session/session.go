// Package session keeps the admin login state in server side sessions.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"
)

const (
	// CookieName is the name of the cookie carrying the session id.
	CookieName = "session"

	// KeyAdminLogged is the session key of the admin flag.
	KeyAdminLogged = "sr_admin_logged"

	// KeyLoginAt holds the unix time of the admin login.
	KeyLoginAt = "sr_login_at"
)

// Config of the session manager.
type Config struct {
	Expiry time.Duration
	Secure bool // send the cookie over https only
}

// Manager reads and writes the admin flag of the session behind a request.
type Manager struct {
	store *session.Store
}

// New creates a session manager on top of storage.
func New(storage fiber.Storage, cfg Config) *Manager {
	if storage == nil {
		panic("storage is nil")
	}

	return &Manager{
		store: session.New(session.Config{
			Storage:        storage,
			Expiration:     cfg.Expiry,
			KeyLookup:      "cookie:" + CookieName,
			CookieSecure:   cfg.Secure,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
	}
}

// IsAdmin reports whether the request carries a logged in admin session.
// Any failure to read the session counts as logged out.
func (m *Manager) IsAdmin(c *fiber.Ctx) bool {
	if c.Cookies(CookieName) == "" {
		return false
	}

	sess, err := m.store.Get(c)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read session")

		return false
	}

	logged, _ := sess.Get(KeyAdminLogged).(bool)

	return logged
}

// Login marks the session as admin. A fresh session id is issued.
func (m *Manager) Login(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err = sess.Regenerate(); err != nil {
		return err //nolint:wrapcheck
	}

	sess.Set(KeyAdminLogged, true)
	sess.Set(KeyLoginAt, time.Now().Unix())

	return sess.Save() //nolint:wrapcheck
}

// Logout destroys the session and expires its cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return sess.Destroy() //nolint:wrapcheck
}
