package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/yuya-takeyama/replica-sync/internal/logging"
	"github.com/yuya-takeyama/replica-sync/internal/report"
	"github.com/yuya-takeyama/replica-sync/pkg/fsys"
	"github.com/yuya-takeyama/replica-sync/pkg/logger"
	"github.com/yuya-takeyama/replica-sync/pkg/synchronizer"
)

// Job is one folder pair and everything a cycle does around the
// synchronizer pass.
type Job struct {
	FS      fsys.FileSystem
	Options synchronizer.Options
	Source  string
	Replica string

	// Lock is optional.
	Lock Locker
	// Writer and ReportDest are optional; with both set every cycle stores
	// its result JSON at ReportDest.
	Writer     *report.Writer
	ReportDest string

	Logger *slog.Logger
	Clock  clockwork.Clock
}

// Run is a CycleFunc. It fails when the pair is locked, a root folder is
// missing, the result cannot be stored or any entry failed.
func (j *Job) Run(ctx context.Context, cycle string) error {
	clock := j.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := j.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("cycle", cycle)

	if j.Lock != nil {
		if err := j.Lock.Lock(); err != nil {
			return err
		}
		defer func() {
			if err := j.Lock.Unlock(); err != nil {
				log.Warn("failed to release lock", "error", err)
			}
		}()
	}

	sink := logger.NewSlogLogger(log)
	sink.IsDryRun = j.Options.DryRun
	s := synchronizer.New(j.FS, j.Options, sink)

	startedAt := clock.Now()
	res, err := s.Synchronize(j.Source, j.Replica)
	if err != nil {
		return err
	}
	duration := clock.Since(startedAt)

	created := res.Count(synchronizer.OpCreateDir) + res.Count(synchronizer.OpCreateFile)
	deleted := res.Count(synchronizer.OpDeleteFile) + res.Count(synchronizer.OpDeleteDir)
	failures := len(res.Failures())
	logging.LogSummary(log, created, res.Count(synchronizer.OpUpdateFile), deleted, failures, res.BytesCopied(), duration)

	if j.Writer != nil && j.ReportDest != "" {
		result := report.Build(cycle, startedAt, duration, res)
		if err := j.Writer.Write(ctx, j.ReportDest, result); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d operations failed", failures)
	}
	return nil
}
