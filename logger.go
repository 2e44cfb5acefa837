package libemit

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger receives diagnostics such as leak warnings. Implementations must not panic.
type Logger interface {
	WithField(key string, value any) Logger
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger to Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{l: l}
}

// DefaultLogger writes through the zerolog global logger.
func DefaultLogger() Logger {
	return NewZerologLogger(log.Logger)
}

// NopLogger discards everything.
func NopLogger() Logger {
	return NewZerologLogger(zerolog.Nop())
}

func (z zerologLogger) WithField(key string, value any) Logger {
	return zerologLogger{l: z.l.With().Interface(key, value).Logger()}
}

func (z zerologLogger) Debugf(format string, args ...any) {
	z.l.Debug().Msgf(format, args...)
}

func (z zerologLogger) Infof(format string, args ...any) {
	z.l.Info().Msgf(format, args...)
}

func (z zerologLogger) Warnf(format string, args ...any) {
	z.l.Warn().Msgf(format, args...)
}

func (z zerologLogger) Errorf(format string, args ...any) {
	z.l.Error().Msgf(format, args...)
}
