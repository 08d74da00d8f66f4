// Package web wires the fiber app of the portal: views, static files,
// middleware and the page handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	fiberlogger "github.com/studentrep/portal/internal/logger/adapter/fiber"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/handler/admin"
	"github.com/studentrep/portal/internal/web/handler/admin/transfer"
	"github.com/studentrep/portal/internal/web/handler/contact"
	"github.com/studentrep/portal/internal/web/handler/files"
	"github.com/studentrep/portal/internal/web/handler/home"
	"github.com/studentrep/portal/internal/web/handler/login"
	"github.com/studentrep/portal/internal/web/handler/logout"
	authmw "github.com/studentrep/portal/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	dateLayout = "2 Jan 2006 15:04"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and then drains and stops the server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive reports 503 once a shutdown started.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates a new web service.
func New(deps *handler.Deps) *Service {
	if !deps.Valid() {
		panic(handler.ErrNilDepsFatalLogMsg)
	}

	cfg := deps.Cfg

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Log.AppName,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			BodyLimit:             cfg.Webserver.BodyLimit,
			DisableStartupMessage: !cfg.DevMode,
			Views:                 newViews(cfg.DevMode),
		},
	)

	service := &Service{
		App:          app,
		deps:         deps,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log, CheckAliveURI: CheckAlivePath}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   staticFS(),
				Browse: cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(authmw.Locals(deps.Sessions, cfg.Title))

	// init handlers, the admin ones guard their own routes
	for _, h := range []handler.Service{
		&home.Handler,
		&contact.Handler,
		&files.Handler,
		&login.Handler,
		&logout.Handler,
		&admin.Handler,
		&transfer.Handler,
	} {
		h.Init(app, deps)
	}

	return service
}

func newViews(devMode bool) *html.Engine {
	templateEngine := html.NewFileSystem(templateFS(), ".gohtml")

	// in debug mode, use local filesystem for templates
	if devMode {
		templateEngine = html.New(devTemplateDir, ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("date", func(t time.Time) string {
		return t.Local().Format(dateLayout)
	})
	templateEngine.AddFunc("ago", humanize.Time)
	templateEngine.AddFunc("count", func(n int) string {
		return humanize.Comma(int64(n))
	})

	return templateEngine
}
