package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level slog.Level) (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
}

func TestSlogLoggerSuccess(t *testing.T) {
	buf, l := newBufferLogger(slog.LevelInfo)
	lg := NewSlogLogger(l)

	lg.Success("create-file", "/replica/a.txt")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=create-file")
	assert.Contains(t, out, "path=/replica/a.txt")
	assert.Contains(t, out, "status=success")
}

func TestSlogLoggerQuietSuppressesSuccess(t *testing.T) {
	buf, l := newBufferLogger(slog.LevelInfo)
	lg := &SlogLogger{L: l, IsQuiet: true}

	lg.Success("create-file", "/replica/a.txt")
	assert.Empty(t, buf.String())

	lg.Failure("update-file", "/replica/b.txt", errors.New("boom"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "err=boom")
}

func TestSlogLoggerDryRunPrefix(t *testing.T) {
	buf, l := newBufferLogger(slog.LevelInfo)
	lg := &SlogLogger{L: l, IsDryRun: true}

	lg.Success("delete-dir", "/replica/Old")
	assert.Contains(t, buf.String(), `msg="(dryrun) delete-dir"`)
}

func TestSlogLoggerPhasesAtDebug(t *testing.T) {
	buf, l := newBufferLogger(slog.LevelInfo)
	lg := NewSlogLogger(l)

	lg.PhaseStart("create-dirs")
	lg.PhaseComplete("create-dirs", 1, 0)
	assert.Empty(t, buf.String())

	buf, l = newBufferLogger(slog.LevelDebug)
	lg = NewSlogLogger(l)
	lg.PhaseComplete("create-dirs", 3, 1)
	assert.Contains(t, buf.String(), "succeeded=3")
	assert.Contains(t, buf.String(), "failed=1")
}

func TestNewSlogLoggerDefaultsToSlogDefault(t *testing.T) {
	lg := NewSlogLogger(nil)
	assert.Equal(t, slog.Default(), lg.L)
}
