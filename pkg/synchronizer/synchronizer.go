// Package synchronizer mirrors a source directory tree onto a replica tree.
//
// A pass runs five phases, each a complete walk of the tree before the next
// one starts:
//
//  1. create directories missing from the replica
//  2. copy files missing from the replica
//  3. overwrite replica files that differ from their source
//  4. delete replica files with no source counterpart
//  5. delete replica directories with no source counterpart, recursively
//
// Every walk descends through the directories of the source tree. A failure on
// one entry is recorded and the walk moves on to the next entry.
package synchronizer

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yuya-takeyama/replica-sync/pkg/compare"
	"github.com/yuya-takeyama/replica-sync/pkg/fsys"
	"github.com/yuya-takeyama/replica-sync/pkg/logger"
)

type Synchronizer struct {
	fs     fsys.FileSystem
	opts   Options
	logger logger.Logger
}

func New(fs fsys.FileSystem, opts Options, log logger.Logger) *Synchronizer {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Synchronizer{
		fs:     fs,
		opts:   opts,
		logger: log,
	}
}

type phase struct {
	name  string
	visit func(p *pass, source, replica, rel string)
}

var phases = []phase{
	{name: "create-dirs", visit: (*pass).createDirs},
	{name: "create-files", visit: (*pass).createFiles},
	{name: "update-files", visit: (*pass).updateFiles},
	{name: "delete-files", visit: (*pass).deleteFiles},
	{name: "delete-dirs", visit: (*pass).deleteDirs},
}

// Synchronize reconciles replicaRoot with sourceRoot. The only error it
// returns is a *RootNotFoundError, checked before anything is touched; all
// other failures are recorded in the report and logged.
func (s *Synchronizer) Synchronize(sourceRoot, replicaRoot string) (*Report, error) {
	if !s.fs.DirExists(sourceRoot) {
		return nil, &RootNotFoundError{Side: SideSource, Path: sourceRoot}
	}
	if !s.fs.DirExists(replicaRoot) {
		return nil, &RootNotFoundError{Side: SideReplica, Path: replicaRoot}
	}

	p := &pass{
		Synchronizer: s,
		report: &Report{
			Source:  sourceRoot,
			Replica: replicaRoot,
			DryRun:  s.opts.DryRun,
		},
	}

	for _, ph := range phases {
		p.succeeded, p.failed = 0, 0
		s.logger.PhaseStart(ph.name)
		p.walk(ph, sourceRoot, replicaRoot, "")
		s.logger.PhaseComplete(ph.name, p.succeeded, p.failed)
	}

	return p.report, nil
}

// pass holds the state of a single Synchronize call.
type pass struct {
	*Synchronizer
	report    *Report
	succeeded int
	failed    int
}

func (p *pass) walk(ph phase, source, replica, rel string) {
	ph.visit(p, source, replica, rel)

	dirs, err := p.fs.ListDirs(source)
	if err != nil {
		p.record(Outcome{Op: OpList, Target: source, Err: err})
		return
	}
	for _, dir := range dirs {
		name := p.fs.Base(dir)
		childRel := path.Join(rel, name)
		if p.isExcluded(childRel, true) {
			continue
		}
		p.walk(ph, dir, p.fs.Join(replica, name), childRel)
	}
}

func (p *pass) createDirs(source, replica, rel string) {
	dirs, err := p.fs.ListDirs(source)
	if err != nil {
		// recorded by walk, which lists the same directory next
		return
	}
	for _, dir := range dirs {
		name := p.fs.Base(dir)
		if p.isExcluded(path.Join(rel, name), true) {
			continue
		}
		target := p.fs.Join(replica, name)
		if p.fs.DirExists(target) {
			continue
		}
		p.apply(OpCreateDir, dir, target, func() (int64, error) {
			return 0, p.mkdir(target)
		})
	}
}

func (p *pass) createFiles(source, replica, rel string) {
	files, err := p.fs.ListFiles(source)
	if err != nil {
		p.record(Outcome{Op: OpList, Target: source, Err: err})
		return
	}
	for _, file := range files {
		name := p.fs.Base(file)
		if p.isExcluded(path.Join(rel, name), false) {
			continue
		}
		target := p.fs.Join(replica, name)
		if p.fs.FileExists(target) {
			continue
		}
		p.apply(OpCreateFile, file, target, func() (int64, error) {
			return p.copy(file, target, false)
		})
	}
}

func (p *pass) updateFiles(source, replica, rel string) {
	files, err := p.fs.ListFiles(source)
	if err != nil {
		p.record(Outcome{Op: OpList, Target: source, Err: err})
		return
	}
	for _, file := range files {
		name := p.fs.Base(file)
		if p.isExcluded(path.Join(rel, name), false) {
			continue
		}
		target := p.fs.Join(replica, name)
		if !p.fs.FileExists(target) {
			continue
		}
		if !p.differs(file, target) {
			continue
		}
		p.apply(OpUpdateFile, file, target, func() (int64, error) {
			if err := p.unlock(target); err != nil {
				return 0, err
			}
			return p.copy(file, target, true)
		})
	}
}

func (p *pass) deleteFiles(source, replica, rel string) {
	// Nothing to delete under a replica directory that was never created.
	if !p.fs.DirExists(replica) {
		return
	}
	files, err := p.fs.ListFiles(replica)
	if err != nil {
		p.record(Outcome{Op: OpList, Target: replica, Err: err})
		return
	}
	for _, file := range files {
		name := p.fs.Base(file)
		if p.isExcluded(path.Join(rel, name), false) {
			continue
		}
		if p.fs.FileExists(p.fs.Join(source, name)) {
			continue
		}
		p.apply(OpDeleteFile, "", file, func() (int64, error) {
			if err := p.unlock(file); err != nil {
				return 0, err
			}
			return 0, p.remove(file)
		})
	}
}

func (p *pass) deleteDirs(source, replica, rel string) {
	if !p.fs.DirExists(replica) {
		return
	}
	dirs, err := p.fs.ListDirs(replica)
	if err != nil {
		p.record(Outcome{Op: OpList, Target: replica, Err: err})
		return
	}
	for _, dir := range dirs {
		name := p.fs.Base(dir)
		if p.isExcluded(path.Join(rel, name), true) {
			continue
		}
		if p.fs.DirExists(p.fs.Join(source, name)) {
			continue
		}
		p.apply(OpDeleteDir, "", dir, func() (int64, error) {
			return 0, p.removeAll(dir)
		})
	}
}

// differs evaluates the equality strategy. A comparison that fails is logged
// and the pair is left alone until the next pass.
func (p *pass) differs(source, target string) bool {
	equal, err := compare.Equal(p.fs, p.opts.Mode, source, target)
	if err != nil {
		p.record(Outcome{
			Op:     OpCompare,
			Source: source,
			Target: target,
			Err:    fmt.Errorf("compare %s and %s: %w", source, target, err),
		})
		return false
	}
	return !equal
}

// unlock applies the read-only gate to a replica file about to be
// overwritten or deleted.
func (p *pass) unlock(target string) error {
	readOnly, err := p.fs.IsReadOnly(target)
	if err != nil {
		return fmt.Errorf("check read-only: %w", err)
	}
	if !readOnly {
		return nil
	}
	if !p.opts.AllowReadonlyModify {
		return fmt.Errorf("cannot modify %s: %w", target, ErrReadOnly)
	}
	if p.opts.DryRun {
		return nil
	}
	if err := p.fs.ClearReadOnly(target); err != nil {
		return fmt.Errorf("clear read-only: %w", err)
	}
	return nil
}

func (p *pass) apply(op Op, source, target string, fn func() (int64, error)) {
	n, err := fn()
	p.record(Outcome{Op: op, Source: source, Target: target, Bytes: n, Err: err})
}

func (p *pass) record(o Outcome) {
	p.report.Outcomes = append(p.report.Outcomes, o)
	if o.OK() {
		p.succeeded++
		p.logger.Success(string(o.Op), o.Target)
		return
	}
	p.failed++
	p.logger.Failure(string(o.Op), o.Target, o.Err)
}

func (p *pass) mkdir(target string) error {
	if p.opts.DryRun {
		return nil
	}
	return p.fs.Mkdir(target)
}

func (p *pass) copy(source, target string, overwrite bool) (int64, error) {
	info, err := p.fs.Stat(source)
	if err != nil {
		return 0, err
	}
	if p.opts.DryRun {
		return info.Size, nil
	}
	if err := p.fs.CopyFile(source, target, overwrite); err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (p *pass) remove(target string) error {
	if p.opts.DryRun {
		return nil
	}
	return p.fs.Remove(target)
}

func (p *pass) removeAll(target string) error {
	if p.opts.DryRun {
		return nil
	}
	return p.fs.RemoveAll(target)
}

func (p *pass) isExcluded(rel string, isDir bool) bool {
	for _, pattern := range p.opts.Excludes {
		if strings.HasSuffix(pattern, "/") {
			if !isDir {
				continue
			}
			pattern = strings.TrimSuffix(pattern, "/")
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}
