// SPDX-License-Identifier: Apache-2.0

// Package logger provides the engine's console output for the
// apply/rollback/mark/unmark lifecycle.
package logger

import "github.com/pterm/pterm"

// Logger is responsible for logging every step the engine takes.
type Logger interface {
	LogMigrationStart(id string)
	LogMigrationComplete(id string)
	LogMigrationRollback(id string)
	LogMigrationRollbackComplete(id string)

	LogStepStart(migrationID string, stepID int)
	LogStepComplete(migrationID string, stepID int)

	LogLockWait(timeoutSeconds float64)
	LogLockAcquired()

	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type engineLogger struct {
	logger  pterm.Logger
	verbose bool
}

type noopLogger struct{}

// New returns a Logger backed by pterm's default logger. verbose enables
// per-step (as opposed to per-migration) log lines.
func New(verbose bool) Logger {
	return &engineLogger{logger: pterm.DefaultLogger, verbose: verbose}
}

// NewNoop returns a Logger that discards everything, for use in tests and
// library callers that want to supply their own.
func NewNoop() Logger {
	return &noopLogger{}
}

func (l *engineLogger) LogMigrationStart(id string) {
	l.logger.Info("applying migration", l.logger.Args("id", id))
}

func (l *engineLogger) LogMigrationComplete(id string) {
	l.logger.Info("applied migration", l.logger.Args("id", id))
}

func (l *engineLogger) LogMigrationRollback(id string) {
	l.logger.Info("rolling back migration", l.logger.Args("id", id))
}

func (l *engineLogger) LogMigrationRollbackComplete(id string) {
	l.logger.Info("rolled back migration", l.logger.Args("id", id))
}

func (l *engineLogger) LogStepStart(migrationID string, stepID int) {
	if !l.verbose {
		return
	}
	l.logger.Debug("running step", l.logger.Args("migration", migrationID, "step", stepID))
}

func (l *engineLogger) LogStepComplete(migrationID string, stepID int) {
	if !l.verbose {
		return
	}
	l.logger.Debug("step complete", l.logger.Args("migration", migrationID, "step", stepID))
}

func (l *engineLogger) LogLockWait(timeoutSeconds float64) {
	l.logger.Info("waiting for migration lock", l.logger.Args("timeout_seconds", timeoutSeconds))
}

func (l *engineLogger) LogLockAcquired() {
	l.logger.Info("acquired migration lock")
}

func (l *engineLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args...))
}

func (l *engineLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.logger.Args(args...))
}

func (l *engineLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.logger.Args(args...))
}

func (*noopLogger) LogMigrationStart(string)            {}
func (*noopLogger) LogMigrationComplete(string)         {}
func (*noopLogger) LogMigrationRollback(string)         {}
func (*noopLogger) LogMigrationRollbackComplete(string) {}
func (*noopLogger) LogStepStart(string, int)            {}
func (*noopLogger) LogStepComplete(string, int)         {}
func (*noopLogger) LogLockWait(float64)                 {}
func (*noopLogger) LogLockAcquired()                    {}
func (*noopLogger) Info(string, ...any)                 {}
func (*noopLogger) Warn(string, ...any)                 {}
func (*noopLogger) Error(string, ...any)                {}
