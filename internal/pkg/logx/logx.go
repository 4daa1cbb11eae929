/*
Package logx provides a structured logging wrapper based on zerolog.

It is responsible for initializing the global logger, configuring the output format
(JSON or console) based on the environment, and providing unified helper functions
for logging levels like Info, Warn, Error, and Fatal. Long-lived parts of the server
take a Component logger; request handlers use the request-scoped logger from Ctx.
*/
package logx

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger initializes the global zerolog instance.
// Development: Debug level, uses ConsoleWriter (colored/human-readable format).
// Production: Info level, uses standard JSON format.
// All logs include a Unix timestamp and caller information.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Ctx returns the request-scoped logger stored by RequestLogger, or the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}

// Info records a log message at the Info level with an optional key-value field list.
func Info(msg string, fields ...any) {
	write(Logger().Info(), "Info", msg, fields)
}

// Warn records a log message at the Warn level with an optional key-value field list.
func Warn(msg string, fields ...any) {
	write(Logger().Warn(), "Warn", msg, fields)
}

// Error records err at the Error level with an optional key-value field list.
func Error(err error, msg string, fields ...any) {
	write(Logger().Error().Err(err), "Error", msg, fields)
}

// Fatal records err at the Fatal level and then calls os.Exit(1).
func Fatal(err error, msg string, fields ...any) {
	write(Logger().Fatal().Err(err), "Fatal", msg, fields)
}

// write attaches key-value fields to event and sends it. An odd field count would make
// zerolog panic, so such fields are dropped with a warning instead.
func write(event *zerolog.Event, level, msg string, fields []any) {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msgf("Logx call (%s) received odd number of fields: %v. Fields ignored.", level, fields)
		fields = nil
	}

	event.
		Fields(fields).
		CallerSkipFrame(2).
		Msg(msg)
}
