// Package logging constructs the slog loggers used across centrifuge and
// provides small attribute helpers so call sites stay terse.
package logging
