// Package login provides the admin login page.
package login

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/auth"
	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/metrics"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/navigation"
	"github.com/studentrep/portal/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"

	// AdminPath is where a successful login lands.
	AdminPath = handler.RootPath + "admin"
)

// Form is the submitted login form.
type Form struct {
	Password string `form:"password"`
	Code     string `form:"code"`
}

// Service is the login handler service.
type Service struct {
	cfg      *config.Config
	auth     auth.Authenticator
	sessions *session.Manager
}

var _ handler.Service = (*Service)(nil)

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) {
	if app == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.cfg = deps.Cfg
	s.auth = deps.Auth
	s.sessions = deps.Sessions

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.limiter(), s.Post)
	})
}

// limiter throttles login posts per client IP.
func (s *Service) limiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        s.cfg.Webserver.Login.MaxAttempts,
		Expiration: s.cfg.Webserver.Login.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			log.Warn().Str("ip", c.IP()).Msg("login rate limit reached")

			return s.render(c, fiber.StatusTooManyRequests, ErrTooManyAttempts)
		},
	})
}

func (s *Service) render(c *fiber.Ctx, status int, err error) error {
	nav := navigation.Page("Admin login", navigation.SectionAdmin, "login", Path)

	values := fiber.Map{"TOTP": s.cfg.Admin.TOTPSecret != ""}
	if err != nil {
		values["Error"] = err.Error()
	}

	return c.Status(status).Render(TemplateName, handler.View(c, nav, values), handler.BaseLayout)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	if c.Locals(handler.LocalAdmin) == true {
		return c.Redirect(AdminPath)
	}

	return s.render(c, fiber.StatusOK, nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, ErrInvalidFormData)
	}

	err := s.auth.Authenticate(c.UserContext(), auth.Credentials{Password: form.Password, Code: form.Code})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		log.Info().Err(err).Str("ip", c.IP()).Msg("admin login rejected")

		return s.render(c, fiber.StatusUnauthorized, ErrInvalidCredentials)
	}

	if err = s.sessions.Login(c); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return s.render(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	log.Info().Str("ip", c.IP()).Msg("admin logged in")

	return c.Redirect(AdminPath)
}
