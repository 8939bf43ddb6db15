package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of github.com/rs/zerolog.
type ZerologLogger struct {
	log       zerolog.Logger
	component string
}

// Config controls the zerolog-backed Logger's output.
type Config struct {
	// Level is one of debug, info, warn, error, none. Defaults to info.
	Level string
	// Pretty enables human-readable console output instead of JSON.
	Pretty bool
}

// NewZerolog builds a Logger writing to stderr, configured by cfg.
func NewZerolog(cfg Config) *ZerologLogger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var zl zerolog.Logger
	if cfg.Pretty {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return &ZerologLogger{log: zl}
}

func (l *ZerologLogger) Debug(msg string, fields ...Field) {
	l.emit(l.log.Debug(), msg, nil, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...Field) {
	l.emit(l.log.Info(), msg, nil, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...Field) {
	l.emit(l.log.Warn(), msg, nil, fields)
}

func (l *ZerologLogger) Error(msg string, err error, fields ...Field) {
	l.emit(l.log.Error(), msg, err, fields)
}

func (l *ZerologLogger) WithComponent(component string) Logger {
	return &ZerologLogger{log: l.log.With().Str("component", component).Logger(), component: component}
}

func (l *ZerologLogger) WithFields(fields ...Field) Logger {
	ctx := l.log.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{log: ctx.Logger(), component: l.component}
}

func (l *ZerologLogger) emit(event *zerolog.Event, msg string, err error, fields []Field) {
	if l.component != "" {
		event.Str("component", l.component)
	}
	if err != nil {
		event.Err(err)
	}
	for _, f := range fields {
		event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "off", "silent":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
