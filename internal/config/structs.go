package config

import (
	"time"

	"github.com/studentrep/portal/internal/logger"
)

// Supported gorm engines.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// Supported backends for the portal state (messages, resources, announcements).
const (
	StateBackendDB     = "db"
	StateBackendMemory = "memory"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Login throttles admin login attempts per client IP.
type Login struct {
	MaxAttempts int
	Window      time.Duration
}

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or file path for sqlite
	GormEngine string // sqlite, mysql or postgres
}

// LDAP enables admin login by binding as BindDN with the submitted password.
type LDAP struct {
	Enabled    bool
	URL        string // ldap:// or ldaps://
	BindDN     string
	StartTLS   bool
	SkipVerify bool
	Timeout    time.Duration
}

// Admin holds the admin gate credentials.
type Admin struct {
	PasswordHash string // argon2id hash, see "portal hash-password"
	Password     string // plaintext, hashed at startup; dev only
	TOTPSecret   string // base32 secret, enables a second factor when set
	LDAP         LDAP
}

// Storage configures where the portal keeps its state and files.
type Storage struct {
	StateBackend string // db or memory
	StateTable   string // table holding the persisted collections
	BlobDir      string // root of the content-addressed file store
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Admin     Admin
	Storage   Storage
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic bool    // enable static file browsing (for development purposes only)
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	BodyLimit    int     // max request body size in bytes, bounds uploads
	Session      Session // session settings
	Login        Login   // login throttling
}
