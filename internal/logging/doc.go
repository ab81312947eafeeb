// Package logging assembles the structured slog loggers used across stalker
// components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so ingestion and store code tag log
// lines with guild, session, and week identifiers the same way everywhere.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
