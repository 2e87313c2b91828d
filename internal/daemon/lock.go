package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

var ErrPairLocked = errors.New("folder pair is being synchronized by another process")

// Locker guards a folder pair for the duration of one cycle.
type Locker interface {
	Lock() error
	Unlock() error
}

// PairLock is a file lock shared by every process syncing the same
// (source, replica) pair.
type PairLock struct {
	flock *flock.Flock
}

// NewPairLock returns the lock for the pair. The lock file lives in dir and is
// named after the absolute paths of both folders.
func NewPairLock(dir, source, replica string) (*PairLock, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", source, err)
	}
	replica, err = filepath.Abs(replica)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", replica, err)
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+source+"\x00file://"+replica))
	path := filepath.Join(dir, fmt.Sprintf("replica-sync-%s.lock", id))
	return &PairLock{flock: flock.New(path)}, nil
}

func (l *PairLock) Path() string {
	return l.flock.Path()
}

func (l *PairLock) Lock() error {
	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock folder pair: %w", err)
	}
	if !locked {
		return ErrPairLocked
	}
	return nil
}

func (l *PairLock) Unlock() error {
	// not ours, leave the file for the holder
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock folder pair: %w", err)
	}

	if err := os.Remove(l.flock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
