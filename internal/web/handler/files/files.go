// Package files lists and serves the resources published by the admin.
package files

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/db/models"
	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/navigation"
)

const (
	// Path is the path to the files page.
	Path = handler.RootPath + "files"

	// TemplateName is the name of the files template.
	TemplateName = "files"
)

// Service is the files handler service.
type Service struct {
	store *portal.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the files handler.
var Handler = Service{}

// Init initializes the files handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.store = deps.Store

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.List)
		router.Get("/:id", s.Download)
	})
}

// List renders the published resources in upload order.
func (s *Service) List(c *fiber.Ctx) error {
	nav := navigation.Page("Files", navigation.SectionPublic, "files", Path)

	return c.Render(TemplateName, handler.View(c, nav, fiber.Map{
		"Resources": s.store.Resources(portal.OldestFirst),
	}), handler.BaseLayout)
}

// Download streams a resource as an attachment.
func (s *Service) Download(c *fiber.Ctx) error {
	res, ok := s.store.Resource(c.Params("id"))
	if !ok {
		return fiber.ErrNotFound
	}

	return SendAttachment(c, s.store, res.Attachment)
}

// SendAttachment streams the content of att with a download disposition.
func SendAttachment(c *fiber.Ctx, store *portal.Store, att models.Attachment) error {
	rc, ref, err := store.OpenBlob(c.UserContext(), att.Digest)
	if errors.Is(err, portal.ErrNotFound) {
		log.Warn().Str("digest", att.Digest).Str("name", att.Name).Msg("attachment content missing")

		return fiber.ErrNotFound
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = ref.MimeType
	}

	c.Attachment(att.Name)
	c.Set(fiber.HeaderContentType, mimeType)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")

	return c.SendStream(rc, int(ref.Size))
}
