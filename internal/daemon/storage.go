package daemon

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studentrep/portal/internal/blob"
	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/db/dsn"
	"github.com/studentrep/portal/internal/kvstore"
	"github.com/studentrep/portal/internal/logger/adapter/stdlogger"
	"github.com/studentrep/portal/internal/portal"
)

// SessionTable holds the admin sessions.
const SessionTable = "sessions"

const slowQueryThreshold = 500 * time.Millisecond

// Backends are the storages the portal runs on.
type Backends struct {
	DB    *gorm.DB
	State fiber.Storage
	Store *portal.Store
}

// Open connects the database and opens the state storage and the blob store.
// It is shared by the web service and the export/import commands.
func Open(cfg *config.Config, fs afero.Fs) (*Backends, error) {
	db, err := openDB(cfg, fs)
	if err != nil {
		return nil, err
	}

	var state fiber.Storage

	switch cfg.Storage.StateBackend {
	case config.StateBackendMemory:
		log.Warn().Msg("state backend is memory, messages and files are lost on restart")

		state = kvstore.NewMemory()
	default:
		if state, err = kvstore.NewTable(db, cfg.Storage.StateTable); err != nil {
			return nil, fmt.Errorf("open state table: %w", err)
		}
	}

	blobs, err := blob.NewFS(fs, cfg.Storage.BlobDir)
	if err != nil {
		return nil, err
	}

	return &Backends{
		DB:    db,
		State: state,
		Store: portal.New(state, blobs),
	}, nil
}

// Close releases the database connection.
func (b *Backends) Close() {
	if err := b.State.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close state storage")
	}

	sqlDB, err := b.DB.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

func openDB(cfg *config.Config, fs afero.Fs) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DB.GormEngine == config.EngineSQLite || cfg.DB.GormEngine == "" {
		if err = fs.MkdirAll(filepath.Dir(cfg.DB.Name), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.NewWithLevel(zerolog.WarnLevel), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}

// openSessions returns the session storage for the configured engine.
// The gofiber storages run their own expiry GC, the sqlite table is
// collected by the daemon.
func openSessions(cfg *config.Config, db *gorm.DB) (fiber.Storage, *kvstore.Table, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         SessionTable,
		}), nil, nil
	case config.EnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.PostgresURI(cfg),
			Table:         SessionTable,
		}), nil, nil
	default:
		t, err := kvstore.NewTable(db, SessionTable)
		if err != nil {
			return nil, nil, fmt.Errorf("open session table: %w", err)
		}

		return t, t, nil
	}
}
