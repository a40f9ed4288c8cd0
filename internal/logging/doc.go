// Package logging assembles structured slog loggers and attribute helpers used
// by the daemon, the UI process and the CLI.
//
// It owns the console/JSON handlers and level/output plumbing, and exposes
// WarnWithContext so every warning carries an event type, an impact and a
// hint for the operator. NewNop provides a discard logger for tests and for
// wiring code that receives a nil logger.
package logging
