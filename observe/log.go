package observe

import (
	"log/slog"
	"time"
)

// Logger emits retry lifecycle events through slog. Attempt failures log at
// Warn, final failures at Error, everything else at Debug, so a production
// handler at Info level stays quiet for healthy runs.
type Logger struct {
	log *slog.Logger
}

var _ Observer = (*Logger)(nil)

// NewLogger creates a logging observer. If log is nil, slog.Default is used.
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

// OnStart implements the Observer interface.
func (l *Logger) OnStart(op, runID string) {
	l.log.Debug("retry run started", "op", op, "run_id", runID)
}

// OnAttempt implements the Observer interface.
func (l *Logger) OnAttempt(op, runID string, try int, err error) {
	if err != nil {
		l.log.Warn("attempt failed", "op", op, "run_id", runID, "try", try, "error", err)
		return
	}
	l.log.Debug("attempt returned", "op", op, "run_id", runID, "try", try)
}

// OnWait implements the Observer interface.
func (l *Logger) OnWait(op, runID string, try int, wait time.Duration) {
	l.log.Debug("backing off", "op", op, "run_id", runID, "try", try, "wait", wait)
}

// OnResolve implements the Observer interface.
func (l *Logger) OnResolve(op, runID string, tries int, elapsed time.Duration, err error) {
	if err != nil {
		l.log.Error("retry run failed", "op", op, "run_id", runID, "tries", tries, "elapsed", elapsed, "error", err)
		return
	}
	l.log.Debug("retry run resolved", "op", op, "run_id", runID, "tries", tries, "elapsed", elapsed)
}
