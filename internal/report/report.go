// Package report renders the outcome of a sync cycle as a JSON document and
// stores it on disk or in S3.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuya-takeyama/replica-sync/internal/s3client"
	"github.com/yuya-takeyama/replica-sync/pkg/synchronizer"
)

// Result represents one sync cycle
type Result struct {
	Cycle     string       `json:"cycle"`
	Source    string       `json:"source"`
	Replica   string       `json:"replica"`
	DryRun    bool         `json:"dry_run"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Files     []ResultFile `json:"files"`
	Errors    []ErrorFile  `json:"errors"`
	Summary   Summary      `json:"summary"`
}

type ResultFile struct {
	Action string `json:"action"` // "created", "updated", "deleted"
	Kind   string `json:"kind"`   // "file", "dir"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Bytes  int64  `json:"bytes,omitempty"`
}

type ErrorFile struct {
	Action string `json:"action"` // "create-file", "compare", ...
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

type Summary struct {
	CreatedDirs  int   `json:"created_dirs"`
	CreatedFiles int   `json:"created_files"`
	UpdatedFiles int   `json:"updated_files"`
	DeletedFiles int   `json:"deleted_files"`
	DeletedDirs  int   `json:"deleted_dirs"`
	Failed       int   `json:"failed"`
	BytesCopied  int64 `json:"bytes_copied"`
}

// Build converts a synchronizer report into a Result.
func Build(cycle string, startedAt time.Time, duration time.Duration, r *synchronizer.Report) Result {
	result := Result{
		Cycle:     cycle,
		Source:    r.Source,
		Replica:   r.Replica,
		DryRun:    r.DryRun,
		StartedAt: startedAt.UTC(),
		Duration:  duration.Round(time.Millisecond).String(),
		Files:     []ResultFile{},
		Errors:    []ErrorFile{},
	}

	for _, o := range r.Outcomes {
		if !o.OK() {
			result.Errors = append(result.Errors, ErrorFile{
				Action: string(o.Op),
				Source: o.Source,
				Target: o.Target,
				Error:  o.Err.Error(),
			})
			result.Summary.Failed++
			continue
		}

		action, kind := describe(o.Op)
		result.Files = append(result.Files, ResultFile{
			Action: action,
			Kind:   kind,
			Source: o.Source,
			Target: o.Target,
			Bytes:  o.Bytes,
		})
		result.Summary.BytesCopied += o.Bytes

		switch o.Op {
		case synchronizer.OpCreateDir:
			result.Summary.CreatedDirs++
		case synchronizer.OpCreateFile:
			result.Summary.CreatedFiles++
		case synchronizer.OpUpdateFile:
			result.Summary.UpdatedFiles++
		case synchronizer.OpDeleteFile:
			result.Summary.DeletedFiles++
		case synchronizer.OpDeleteDir:
			result.Summary.DeletedDirs++
		}
	}

	return result
}

func describe(op synchronizer.Op) (action, kind string) {
	switch op {
	case synchronizer.OpCreateDir:
		return "created", "dir"
	case synchronizer.OpCreateFile:
		return "created", "file"
	case synchronizer.OpUpdateFile:
		return "updated", "file"
	case synchronizer.OpDeleteFile:
		return "deleted", "file"
	case synchronizer.OpDeleteDir:
		return "deleted", "dir"
	default:
		return string(op), ""
	}
}

// Uploader stores an object in S3. *s3client.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

type Writer struct {
	// Uploader is required only for s3:// destinations.
	Uploader Uploader
}

// Write stores result at dest, a local path or an s3://bucket/key URI.
func (w *Writer) Write(ctx context.Context, dest string, result Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if strings.HasPrefix(dest, "s3://") {
		if w.Uploader == nil {
			return fmt.Errorf("no S3 uploader configured for %s", dest)
		}
		bucket, key, err := s3client.ParseS3URI(dest)
		if err != nil {
			return err
		}
		if err := w.Uploader.Upload(ctx, bucket, key, data, "application/json"); err != nil {
			return fmt.Errorf("failed to upload result: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
