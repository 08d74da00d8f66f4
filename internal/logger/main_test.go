package logger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentrep/portal/internal/logger"
)

func baseConfig() logger.Log {
	return logger.Log{
		LogLevel:    "info",
		ServiceName: "portal-test",
		AppName:     "student-rep-portal",
	}
}

func TestInit_Validation(t *testing.T) {
	cfg := baseConfig()
	cfg.ServiceName = ""
	require.ErrorIs(t, logger.Init(cfg), logger.ErrServiceNameIsEmpty)

	cfg = baseConfig()
	cfg.AppName = ""
	require.ErrorIs(t, logger.Init(cfg), logger.ErrAppNameIsEmpty)

	cfg = baseConfig()
	cfg.LogLevel = "loud"
	require.Error(t, logger.Init(cfg))
}

func TestLevelWriter_Routing(t *testing.T) {
	var info, warn, errs, trace bytes.Buffer

	lw := &logger.LevelWriter{InfoWriter: &info, WarnWriter: &warn, ErrorWriter: &errs, TraceWriter: &trace}
	l := zerolog.New(lw).Level(zerolog.TraceLevel)

	l.Trace().Msg("t")
	l.Debug().Msg("d")
	l.Info().Msg("i")
	l.Warn().Msg("w")
	l.Error().Msg("e")

	assert.Equal(t, 1, strings.Count(trace.String(), "\n"))
	assert.Equal(t, 2, strings.Count(info.String(), "\n"), "debug and info share a writer")
	assert.Equal(t, 1, strings.Count(warn.String(), "\n"))
	assert.Equal(t, 1, strings.Count(errs.String(), "\n"))

	n, err := lw.WriteLevel(zerolog.Disabled, []byte("x"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInit_RollingFiles(t *testing.T) {
	dir := t.TempDir()

	cfg := baseConfig()
	cfg.File = logger.LogFile{
		Enabled:  true,
		Path:     dir,
		InfoLog:  "info.log",
		ErrorLog: "error.log",
		WarnLog:  "warn.log",
		TraceLog: "trace.log",
	}
	require.NoError(t, logger.Init(cfg))

	log.Info().Str("id", "msg_1").Msg("contact message received")
	log.Error().Msg("could not persist collection")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "contact message received")
	assert.Contains(t, string(info), `"app":"student-rep-portal"`)
	assert.NotContains(t, string(info), "could not persist")

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "could not persist collection")
}

func TestInit_ConsoleJSON(t *testing.T) {
	cfg := baseConfig()
	cfg.Console = logger.Console{Enabled: true}

	out := captureStdout(t, func() {
		require.NoError(t, logger.Init(cfg))
		log.Info().Msg("portal state loaded")
		log.Debug().Msg("below the level")
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "portal state loaded", entry["message"])
}

func TestInit_NoWriters(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, logger.Init(baseConfig()))
		log.Error().Msg("nowhere")
	})

	assert.Empty(t, out)
}

// captureStdout runs fn with stdout and stderr redirected into a pipe.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr

	return <-outC
}
