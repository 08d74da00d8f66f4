package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/navigation"
)

// View returns the template data every page gets, merged with values.
func View(c *fiber.Ctx, nav *navigation.Context, values fiber.Map) fiber.Map {
	m := fiber.Map{
		"Navigation": nav,
		"Admin":      c.Locals(LocalAdmin) == true,
		"Title":      c.Locals(LocalTitle),
	}

	for k, v := range values {
		m[k] = v
	}

	return m
}

// FormUpload returns the file posted in field, or nil when none was sent.
// The returned close func must be called once the upload was consumed.
func FormUpload(c *fiber.Ctx, field string) (*portal.Upload, func(), error) {
	noop := func() {}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err //nolint:wrapcheck
	}

	files := form.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, noop, nil
	}

	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return nil, noop, errors.Join(portal.ErrReadFailed, err)
	}

	return &portal.Upload{Name: fh.Filename, Content: f}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close upload")
		}
	}
}
