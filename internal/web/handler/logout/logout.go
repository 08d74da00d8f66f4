// Package logout ends the admin session.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/session"
)

// Path is the path of the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	sessions *session.Manager
}

var _ handler.Service = (*Service)(nil)

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.sessions = deps.Sessions

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)
}

// Logout handles admin logout by destroying the session.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	return c.Redirect(handler.RootPath)
}
