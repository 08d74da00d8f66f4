// Package contact handles the public contact form.
package contact

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/navigation"
)

const (
	// Path is the path to the contact page.
	Path = handler.RootPath + "contact"

	// TemplateName is the name of the contact template.
	TemplateName = "contact"

	// StatusSent is shown after a successful submission.
	StatusSent = "Your message was sent. Thank you!"

	// ErrMsgInvalidForm is shown when the form does not validate.
	ErrMsgInvalidForm = "Please write a message and check your email address."

	// ErrMsgReadFailed is shown when the attachment could not be read.
	ErrMsgReadFailed = "The attached file could not be read. Please try again."

	// ErrMsgInternal is shown when the message could not be stored.
	ErrMsgInternal = "Your message could not be saved. Please try again later."
)

// Service is the contact handler service.
type Service struct {
	store *portal.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the contact handler.
var Handler = Service{}

// Init initializes the contact handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.store = deps.Store

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)
}

func (s *Service) render(c *fiber.Ctx, status int, form portal.ContactForm, values fiber.Map) error {
	nav := navigation.Page("Contact", navigation.SectionPublic, "contact", Path)

	values["Form"] = form

	return c.Status(status).Render(TemplateName, handler.View(c, nav, values), handler.BaseLayout)
}

// Get renders the empty form, with a confirmation after a redirect from Post.
func (s *Service) Get(c *fiber.Ctx) error {
	values := fiber.Map{}
	if c.Query("sent") == "1" {
		values["Status"] = StatusSent
	}

	return s.render(c, fiber.StatusOK, portal.ContactForm{}, values)
}

// Post stores the submitted message and its optional attachment.
func (s *Service) Post(c *fiber.Ctx) error {
	var form portal.ContactForm

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{"Error": ErrMsgInvalidForm})
	}

	upload, done, err := handler.FormUpload(c, handler.FileField)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read contact attachment")

		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{"Error": ErrMsgReadFailed})
	}
	defer done()

	_, err = s.store.Submit(c.UserContext(), form, upload)

	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return c.Redirect(Path + "?sent=1")
	case errors.As(err, &verrs):
		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{
			"Error":  ErrMsgInvalidForm,
			"Fields": fieldNames(verrs),
		})
	case errors.Is(err, portal.ErrReadFailed):
		return s.render(c, fiber.StatusBadRequest, form, fiber.Map{"Error": ErrMsgReadFailed})
	default:
		log.Error().Err(err).Msg("failed to store contact message")

		return s.render(c, fiber.StatusInternalServerError, form, fiber.Map{"Error": ErrMsgInternal})
	}
}

// fieldNames maps the failed fields for highlighting in the template.
func fieldNames(verrs validator.ValidationErrors) map[string]bool {
	out := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = true
	}

	return out
}
