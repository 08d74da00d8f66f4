// Package transfer offers the export download and the import upload of the
// admin panel.
package transfer

import (
	"bytes"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/portal"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/handler/admin"
	authmw "github.com/studentrep/portal/internal/web/middleware/auth"
)

const (
	// ExportPath downloads the export bundle.
	ExportPath = admin.Path + "/export"

	// ImportPath accepts an export bundle.
	ImportPath = admin.Path + "/import"

	exportFilePrefix = "student-rep-portal-"
	exportFileLayout = "20060102-150405"
)

// Service is the transfer handler service.
type Service struct {
	store *portal.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the transfer handler.
var Handler = Service{}

// Init initializes the transfer handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.store = deps.Store

	guard := authmw.RequireAdmin(deps.Sessions)

	app.Get(ExportPath, guard, s.Export)
	app.Post(ImportPath, guard, s.Import)
}

// Export sends all collections with embedded file content as a JSON download.
func (s *Service) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer

	if err := s.store.WriteExport(c.UserContext(), &buf); err != nil {
		log.Error().Err(err).Msg("export failed")

		return admin.Render(c, s.store, fiber.StatusInternalServerError, fiber.Map{"Error": admin.ErrMsgInternal})
	}

	c.Attachment(exportFileName(c))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

	return c.Send(buf.Bytes())
}

// Import replaces the collections present in the uploaded bundle.
func (s *Service) Import(c *fiber.Ctx) error {
	upload, done, err := handler.FormUpload(c, handler.FileField)
	if err != nil || upload == nil {
		return admin.Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": admin.ErrMsgInvalidImport})
	}
	defer done()

	raw, err := io.ReadAll(upload.Content)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read import file")

		return admin.Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": admin.ErrMsgInvalidImport})
	}

	if err = s.store.Import(c.UserContext(), raw); err != nil {
		if errors.Is(err, portal.ErrInvalidFile) {
			log.Info().Err(err).Str("name", upload.Name).Msg("rejected import file")

			return admin.Render(c, s.store, fiber.StatusBadRequest, fiber.Map{"Error": admin.ErrMsgInvalidImport})
		}

		log.Error().Err(err).Msg("import failed")

		return admin.Render(c, s.store, fiber.StatusInternalServerError, fiber.Map{"Error": admin.ErrMsgInternal})
	}

	log.Info().Str("name", upload.Name).Int("bytes", len(raw)).Msg("import done")

	return admin.RedirectStatus(c, admin.StatusImported)
}

func exportFileName(c *fiber.Ctx) string {
	return exportFilePrefix + c.Context().Time().UTC().Format(exportFileLayout) + ".json"
}
