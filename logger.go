package streamio

import "log/slog"

// Logger is the structured logging interface used by this package.
// *slog.Logger satisfies it, and that is the default; applications with a
// different logging stack can adapt theirs behind these four methods.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger {
	return slog.Default()
}
