// Package daemon wires the storages, the admin gate and the web service.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/studentrep/portal/internal/auth"
	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/kvstore"
	"github.com/studentrep/portal/internal/web"
	"github.com/studentrep/portal/internal/web/handler"
	"github.com/studentrep/portal/internal/web/session"
)

const sessionGCInterval = 10 * time.Minute

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	backends   *Backends
	sessions   fiber.Storage
	sessionGC  *kvstore.Table
	webService *web.Service
}

// Start serves until SIGINT or SIGTERM and releases the storages afterwards.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if d.sessionGC != nil {
		go collectExpired(ctx, d.sessionGC, sessionGCInterval)
	}

	done := make(chan error, 1)

	go func() {
		done <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	d.webService.WaitShutdown()
	cancel()

	err := <-done

	if cerr := d.sessions.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("failed to close session storage")
	}

	d.backends.Close()

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	backends, err := Open(cfg, afero.NewOsFs())
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.FromConfig(cfg.Admin)
	if err != nil {
		backends.Close()

		return nil, fmt.Errorf("admin gate: %w", err)
	}

	sessions, gcTable, err := openSessions(cfg, backends.DB)
	if err != nil {
		backends.Close()

		return nil, err
	}

	deps := &handler.Deps{
		Cfg:   cfg,
		Store: backends.Store,
		Auth:  authenticator,
		Sessions: session.New(sessions, session.Config{
			Expiry: cfg.Webserver.Session.ExpiryTime,
			Secure: !cfg.DevMode,
		}),
	}

	log.Info().
		Str("engine", cfg.DB.GormEngine).
		Str("state", cfg.Storage.StateBackend).
		Str("blobs", cfg.Storage.BlobDir).
		Msg("storages ready")

	return &Daemon{
		cfg:        cfg,
		backends:   backends,
		sessions:   sessions,
		sessionGC:  gcTable,
		webService: web.New(deps),
	}, nil
}

func collectExpired(ctx context.Context, t *kvstore.Table, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.GC()
			if err != nil {
				log.Warn().Err(err).Msg("session gc failed")
				continue
			}

			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired sessions removed")
			}
		}
	}
}
