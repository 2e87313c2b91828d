package synchronizer

import (
	"errors"
	"fmt"

	"github.com/yuya-takeyama/replica-sync/pkg/compare"
)

var (
	// ErrRootNotFound is matched by every *RootNotFoundError.
	ErrRootNotFound = errors.New("root directory not found")
	// ErrReadOnly marks an update or delete refused because the replica file
	// is read-only and modifying read-only files is not allowed.
	ErrReadOnly = errors.New("read-only file")
)

type Side string

const (
	SideSource  Side = "source"
	SideReplica Side = "replica"
)

type RootNotFoundError struct {
	Side Side
	Path string
}

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("%s folder %s does not exist", e.Side, e.Path)
}

func (e *RootNotFoundError) Unwrap() error {
	return ErrRootNotFound
}

type Options struct {
	Mode                compare.Mode
	AllowReadonlyModify bool
	// Excludes are doublestar patterns matched against slash separated paths
	// relative to the roots. A trailing slash restricts a pattern to directories.
	Excludes []string
	DryRun   bool
}

type Op string

const (
	OpCreateDir  Op = "create-dir"
	OpCreateFile Op = "create-file"
	OpUpdateFile Op = "update-file"
	OpDeleteFile Op = "delete-file"
	OpDeleteDir  Op = "delete-dir"
	// OpCompare and OpList are only recorded when they fail.
	OpCompare Op = "compare"
	OpList    Op = "list"
)

// Mutating reports whether op changes the replica.
func (op Op) Mutating() bool {
	switch op {
	case OpCreateDir, OpCreateFile, OpUpdateFile, OpDeleteFile, OpDeleteDir:
		return true
	default:
		return false
	}
}

// Outcome is the record of one attempted operation.
type Outcome struct {
	Op     Op
	Source string // empty for deletes
	Target string
	Bytes  int64
	Err    error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report lists every outcome of a pass in execution order.
type Report struct {
	Source   string
	Replica  string
	DryRun   bool
	Outcomes []Outcome
}

// Count returns the number of successful outcomes of kind op.
func (r *Report) Count(op Op) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Op == op && o.OK() {
			n++
		}
	}
	return n
}

// Mutations returns the number of successful mutating outcomes.
func (r *Report) Mutations() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Op.Mutating() && o.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

func (r *Report) BytesCopied() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.OK() {
			total += o.Bytes
		}
	}
	return total
}
