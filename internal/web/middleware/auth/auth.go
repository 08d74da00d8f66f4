package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/session"
)

// Locals stores the admin flag and the site title for every request.
func Locals(sessions *session.Manager, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(handler.LocalAdmin, sessions.IsAdmin(c))
		c.Locals(handler.LocalTitle, title)

		return c.Next()
	}
}

// RequireAdmin redirects to the login page unless an admin is logged in.
// It trusts the flag set by Locals and asks the session store only when that
// middleware did not run.
func RequireAdmin(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := c.Locals(handler.LocalAdmin).(bool)
		if !ok {
			admin = sessions.IsAdmin(c)
			c.Locals(handler.LocalAdmin, admin)
		}

		if !admin {
			log.Debug().Str("path", c.Path()).Msg("admin route without login")

			return c.Redirect(handler.LoginPath)
		}

		return c.Next()
	}
}
