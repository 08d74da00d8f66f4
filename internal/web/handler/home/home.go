// Package home renders the public announcement feed.
package home

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/navigation"
)

const (
	// Path is the path to the home page.
	Path = handler.RootPath

	// TemplateName is the name of the home template.
	TemplateName = "home"
)

// Service is the home handler service.
type Service struct {
	store *portal.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the home handler.
var Handler = Service{}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.store = deps.Store

	app.Get(Path, s.Get)
}

// Get renders the announcements in the order they were posted.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.Page("Home", navigation.SectionPublic, "home", Path)

	return c.Render(TemplateName, handler.View(c, nav, fiber.Map{
		"Infos": s.store.Infos(portal.OldestFirst),
	}), handler.BaseLayout)
}
