package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/studentrep/portal/internal/auth"
	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/session"
)

// Deps are the collaborators handed to every handler.
type Deps struct {
	Cfg      *config.Config
	Store    *portal.Store
	Auth     auth.Authenticator
	Sessions *session.Manager
}

// Valid reports whether all dependencies are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Store != nil && d.Auth != nil && d.Sessions != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps)
}
