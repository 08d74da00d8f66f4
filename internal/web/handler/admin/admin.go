// Package admin provides the admin panel: message moderation, resource
// uploads and announcements.
package admin

import (
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/handler/files"
	authmw "github.com/studentrep/portal/internal/web/middleware/auth"
	"github.com/studentrep/portal/internal/web/navigation"
)

const (
	// Path is the path to the admin panel.
	Path = handler.RootPath + "admin"

	// TemplateName is the name of the admin template.
	TemplateName = "admin"
)

// Status codes passed to the panel after a redirect.
const (
	StatusDeleted  = "deleted"
	StatusUploaded = "uploaded"
	StatusPosted   = "posted"
	StatusImported = "imported"
)

// Messages shown on the panel.
const (
	ErrMsgNoFile        = "Choose a file to upload."
	ErrMsgReadFailed    = "The file could not be read."
	ErrMsgInvalidInfo   = "An announcement needs a title and a text."
	ErrMsgInternal      = "The change could not be saved."
	ErrMsgInvalidImport = "Invalid file."
)

//nolint:gochecknoglobals
var statusMessages = map[string]string{
	StatusDeleted:  "Deleted.",
	StatusUploaded: "File published.",
	StatusPosted:   "Announcement posted.",
	StatusImported: "Data imported.",
}

// Service is the admin handler service.
type Service struct {
	store *portal.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the admin handler.
var Handler = Service{}

// Init initializes the admin handler. All routes require a logged in admin.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.store = deps.Store

	app.Route(Path, func(router fiber.Router) {
		router.Use(authmw.RequireAdmin(deps.Sessions))

		router.Get(handler.RootPath, s.Get)
		router.Get("/messages/:id/file", s.MessageFile)
		router.Post("/messages/:id/delete", s.DeleteMessage)
		router.Post("/resources", s.AddResource)
		router.Post("/resources/:id/delete", s.DeleteResource)
		router.Post("/infos", s.AddInfo)
		router.Post("/infos/:id/delete", s.DeleteInfo)
	})
}

// Render renders the panel with newest entries first. Other admin handlers
// use it to show errors in place.
func Render(c *fiber.Ctx, store *portal.Store, status int, values fiber.Map) error {
	nav := navigation.Page("Admin", navigation.SectionAdmin, "admin", Path)

	if values == nil {
		values = fiber.Map{}
	}

	values["Messages"] = store.Messages(portal.NewestFirst)
	values["Resources"] = store.Resources(portal.NewestFirst)
	values["Infos"] = store.Infos(portal.NewestFirst)

	return c.Status(status).Render(TemplateName, handler.View(c, nav, values), handler.BaseLayout)
}

// RedirectStatus returns to the panel showing the message of status.
func RedirectStatus(c *fiber.Ctx, status string) error {
	return c.Redirect(Path + "?status=" + url.QueryEscape(status))
}

// Get renders the panel.
func (s *Service) Get(c *fiber.Ctx) error {
	return Render(c, s.store, fiber.StatusOK, fiber.Map{
		"Status": statusMessages[c.Query("status")],
	})
}

// MessageFile downloads the attachment of a message.
func (s *Service) MessageFile(c *fiber.Ctx) error {
	msg, ok := s.store.Message(c.Params("id"))
	if !ok || msg.File == nil {
		return fiber.ErrNotFound
	}

	return files.SendAttachment(c, s.store, *msg.File)
}

// DeleteMessage removes a message. Unknown ids are ignored.
func (s *Service) DeleteMessage(c *fiber.Ctx) error {
	return s.deleted(c, "message")(s.store.DeleteMessage(c.UserContext(), c.Params("id")))
}

// DeleteResource removes a published file. Unknown ids are ignored.
func (s *Service) DeleteResource(c *fiber.Ctx) error {
	return s.deleted(c, "resource")(s.store.DeleteResource(c.UserContext(), c.Params("id")))
}

// DeleteInfo removes an announcement. Unknown ids are ignored.
func (s *Service) DeleteInfo(c *fiber.Ctx) error {
	return s.deleted(c, "announcement")(s.store.DeleteInfo(c.Params("id")))
}

func (s *Service) deleted(c *fiber.Ctx, kind string) func(bool, error) error {
	return func(removed bool, err error) error {
		if err != nil {
			log.Error().Err(err).Str("kind", kind).Str("id", c.Params("id")).Msg("delete failed")

			return Render(c, s.store, fiber.StatusInternalServerError, fiber.Map{"Error": ErrMsgInternal})
		}

		log.Info().Str("kind", kind).Str("id", c.Params("id")).Bool("removed", removed).Msg("delete")

		return RedirectStatus(c, StatusDeleted)
	}
}

// AddResource publishes an uploaded file.
func (s *Service) AddResource(c *fiber.Ctx) error {
	upload, done, err := handler.FormUpload(c, handler.FileField)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read resource upload")

		return Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": ErrMsgReadFailed})
	}
	defer done()

	if upload == nil {
		return Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": ErrMsgNoFile})
	}

	if _, err = s.store.AddResource(c.UserContext(), *upload); err != nil {
		if errors.Is(err, portal.ErrReadFailed) {
			return Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": ErrMsgReadFailed})
		}

		log.Error().Err(err).Msg("failed to publish resource")

		return Render(c, s.store, fiber.StatusInternalServerError, fiber.Map{"Error": ErrMsgInternal})
	}

	return RedirectStatus(c, StatusUploaded)
}

// AddInfo posts an announcement.
func (s *Service) AddInfo(c *fiber.Ctx) error {
	var form portal.InfoForm

	if err := c.BodyParser(&form); err != nil {
		return Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": ErrMsgInvalidInfo})
	}

	_, err := s.store.AddInfo(form.Title, form.Body)

	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return RedirectStatus(c, StatusPosted)
	case errors.As(err, &verrs):
		return Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": ErrMsgInvalidInfo, "InfoForm": form})
	default:
		log.Error().Err(err).Msg("failed to post announcement")

		return Render(c, s.store, fiber.StatusInternalServerError, fiber.Map{"Error": ErrMsgInternal, "InfoForm": form})
	}
}
