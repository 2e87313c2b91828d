package synchronizer

import (
	"github.com/yuya-takeyama/replica-sync/pkg/fsys"
)

// faultFS wraps a real FileSystem and lets a test intercept individual calls.
type faultFS struct {
	fsys.FileSystem
	copyFileFunc  func(inner fsys.FileSystem, src, dst string, overwrite bool) error
	statFunc      func(inner fsys.FileSystem, path string) (fsys.FileInfo, error)
	listFilesFunc func(inner fsys.FileSystem, path string) ([]string, error)
	removeFunc    func(inner fsys.FileSystem, path string) error
}

func (f *faultFS) CopyFile(src, dst string, overwrite bool) error {
	if f.copyFileFunc != nil {
		return f.copyFileFunc(f.FileSystem, src, dst, overwrite)
	}
	return f.FileSystem.CopyFile(src, dst, overwrite)
}

func (f *faultFS) Stat(path string) (fsys.FileInfo, error) {
	if f.statFunc != nil {
		return f.statFunc(f.FileSystem, path)
	}
	return f.FileSystem.Stat(path)
}

func (f *faultFS) ListFiles(path string) ([]string, error) {
	if f.listFilesFunc != nil {
		return f.listFilesFunc(f.FileSystem, path)
	}
	return f.FileSystem.ListFiles(path)
}

func (f *faultFS) Remove(path string) error {
	if f.removeFunc != nil {
		return f.removeFunc(f.FileSystem, path)
	}
	return f.FileSystem.Remove(path)
}

// mockLogger records every call made by the synchronizer.
type mockLogger struct {
	successCalls []logCall
	failureCalls []logCall
	phases       []string
}

type logCall struct {
	op   string
	path string
	err  error
}

func (m *mockLogger) PhaseStart(phase string) {
	m.phases = append(m.phases, phase)
}

func (m *mockLogger) Success(op, path string) {
	m.successCalls = append(m.successCalls, logCall{op: op, path: path})
}

func (m *mockLogger) Failure(op, path string, err error) {
	m.failureCalls = append(m.failureCalls, logCall{op: op, path: path, err: err})
}

func (m *mockLogger) PhaseComplete(phase string, succeeded, failed int) {}
