// Package logger defines the structured logging interface used across the
// vault core, so the underlying library (zerolog) stays swappable and
// library callers who never configured one still get a safe no-op.
package logger

import "time"

// Logger is the structured logging contract used throughout the vault.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)

	WithComponent(component string) Logger
	WithFields(fields ...Field) Logger
}

// Field is a structured key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, val string) Field        { return Field{Key: key, Value: val} }
func Int(key string, val int) Field       { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field     { return Field{Key: key, Value: val} }
func Any(key string, val any) Field       { return Field{Key: key, Value: val} }
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// ErrorField wraps err as a Field named "error", tolerating nil.
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}
