package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr for the provided error under the "error" key.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns a slog.Attr holding the string representation of the
// given fmt.Stringer under the provided key.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// KeyLoggerName is the attribute key identifying which component emitted
// a log record.
const KeyLoggerName = "logger"

// LoggerName returns the component-name attribute for a log record.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}
