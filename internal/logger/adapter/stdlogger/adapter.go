// Package stdlogger adapts the global zerolog logger to printf style interfaces,
// such as the gorm logger writer.
package stdlogger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct {
	logger zerolog.Logger
	level  zerolog.Level // level used by Printf
}

// New returns a Logger writing through the current global zerolog logger.
// Printf logs on debug level.
func New() *Logger {
	return NewWithLevel(zerolog.DebugLevel)
}

// NewWithLevel returns a Logger whose Printf logs on the given level.
func NewWithLevel(level zerolog.Level) *Logger {
	return &Logger{
		logger: log.Logger.With().Str("component", "stdlogger").Logger(),
		level:  level,
	}
}

// Printf implements the gorm logger.Writer interface.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.logger.WithLevel(l.level).Msgf(strings.TrimSuffix(format, "\n"), args...)
}

// Debugf logs on debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// Infof logs on info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Warningf logs on warn level.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

// Errorf logs on error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}
