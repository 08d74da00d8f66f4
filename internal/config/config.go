// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON config override.
	EnvConfigJSON = "SR_PORTAL_CONFIG_JSON"

	defaultShutDownTime     = 5
	defaultBodyLimit        = 32 << 20 // 32 MiB
	defaultSessionExpiry    = 12 * time.Hour
	defaultLoginMaxAttempts = 5
	defaultLoginWindow      = time.Minute
	defaultGormEngine       = EngineSQLite
	defaultStateBackend     = StateBackendDB
	defaultStateTable       = "portal_state"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the portal can not start without and
// fills in defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Admin.PasswordHash == "" && c.Admin.Password == "" && !c.Admin.LDAP.Enabled {
		return errors.Wrap(ErrNoAdminCredential, invalidErrMessage)
	}

	if c.Storage.BlobDir == "" {
		return errors.Wrap(ErrEmptyBlobDir, invalidErrMessage)
	}

	switch c.Storage.StateBackend {
	case "":
		c.Storage.StateBackend = defaultStateBackend
	case StateBackendDB, StateBackendMemory:
	default:
		return errors.Wrapf(ErrUnknownStateBackend, "%s: %q", invalidErrMessage, c.Storage.StateBackend)
	}

	if c.Storage.StateTable == "" {
		c.Storage.StateTable = defaultStateTable
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = defaultGormEngine
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrapf(ErrUnknownGormEngine, "%s: %q", invalidErrMessage, c.DB.GormEngine)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.BodyLimit == 0 {
		c.Webserver.BodyLimit = defaultBodyLimit
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.Login.MaxAttempts == 0 {
		c.Webserver.Login.MaxAttempts = defaultLoginMaxAttempts
	}

	if c.Webserver.Login.Window == 0 {
		c.Webserver.Login.Window = defaultLoginWindow
	}

	return nil
}
