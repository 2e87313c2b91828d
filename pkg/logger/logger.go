package logger

import (
	"fmt"
	"log/slog"
)

// Logger receives one record per attempted mutation. It is an observability
// sink only; the synchronizer never looks at what it did with a record.
type Logger interface {
	PhaseStart(phase string)
	Success(op, path string)
	Failure(op, path string, err error)
	PhaseComplete(phase string, succeeded, failed int)
}

// SlogLogger writes records to a structured logger. Successes are logged at
// info, failures at error and phase boundaries at debug.
type SlogLogger struct {
	L        *slog.Logger
	IsQuiet  bool
	IsDryRun bool
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{L: l}
}

func (l *SlogLogger) PhaseStart(phase string) {
	l.L.Debug("phase start", "phase", phase)
}

func (l *SlogLogger) Success(op, path string) {
	if l.IsQuiet {
		return
	}
	msg := op
	if l.IsDryRun {
		msg = fmt.Sprintf("(dryrun) %s", op)
	}
	l.L.Info(msg, "path", path, "status", "success")
}

func (l *SlogLogger) Failure(op, path string, err error) {
	l.L.Error(op, "path", path, "status", "failed", "err", err)
}

func (l *SlogLogger) PhaseComplete(phase string, succeeded, failed int) {
	l.L.Debug("phase complete", "phase", phase, "succeeded", succeeded, "failed", failed)
}

type NullLogger struct{}

func (l *NullLogger) PhaseStart(phase string) {}

func (l *NullLogger) Success(op, path string) {}

func (l *NullLogger) Failure(op, path string, err error) {}

func (l *NullLogger) PhaseComplete(phase string, succeeded, failed int) {}
