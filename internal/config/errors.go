package config

import (
	"errors"
)

var (
	// ErrNilConfig error if no config was given.
	ErrNilConfig = errors.New("config is nil")

	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrNoAdminCredential error if neither a password, a password hash nor LDAP is configured.
	ErrNoAdminCredential = errors.New("toml config admin needs passwordHash, password or ldap")

	// ErrEmptyBlobDir error if config storage.blobDir is empty.
	ErrEmptyBlobDir = errors.New("toml config storage.blobDir can not be empty")

	// ErrUnknownStateBackend error if config storage.stateBackend is not supported.
	ErrUnknownStateBackend = errors.New("unknown storage.stateBackend")

	// ErrUnknownGormEngine error if config db.gormEngine is not supported.
	ErrUnknownGormEngine = errors.New("unknown db.gormEngine")
)
