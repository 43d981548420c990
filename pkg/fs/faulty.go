package fs

import (
	"errors"
	"os"
	"sync"
)

// Op names an operation [Faulty] can fail.
type Op string

// Operations that can carry a [Fault].
const (
	OpOpen     Op = "open"
	OpOpenFile Op = "openfile"
	OpReadFile Op = "readfile"
	OpStat     Op = "stat"
	OpRename   Op = "rename"
	OpRemove   Op = "remove"
	OpRead     Op = "read"
	OpWrite    Op = "write"
	OpSeek     Op = "seek"
	OpSync     Op = "sync"
	OpClose    Op = "close"
)

// ErrInjected is the default error returned by a [Fault] without Err.
var ErrInjected = errors.New("injected fault")

// InjectedError marks an error as produced by [Faulty]. It wraps the
// configured error so errors.Is keeps working.
type InjectedError struct {
	Op   Op
	Path string
	Err  error
}

func (e *InjectedError) Error() string {
	return string(e.Op) + " " + e.Path + ": " + e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) came from [Faulty].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Fault fails Op on Path after Skip successful calls.
//
// An empty Path matches every path. File-level ops (read, write, seek,
// sync, close) match on the path the file was opened with.
type Fault struct {
	Op   Op
	Path string
	Skip int
	Err  error
}

// Faulty wraps an [FS] and fails the operations named by its faults.
// Everything else passes through to the wrapped FS.
//
// Faulty is meant for tests that need a specific I/O failure at a specific
// point, e.g. a seek failing on the third record read.
type Faulty struct {
	inner FS

	mu     sync.Mutex
	faults []*faultState
}

type faultState struct {
	Fault
	calls int
}

// NewFaulty returns a [Faulty] wrapping inner.
func NewFaulty(inner FS, faults ...Fault) *Faulty {
	f := &Faulty{inner: inner}
	for _, fault := range faults {
		f.faults = append(f.faults, &faultState{Fault: fault})
	}

	return f
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, st := range f.faults {
		if st.Op != op || (st.Path != "" && st.Path != path) {
			continue
		}

		st.calls++
		if st.calls <= st.Skip {
			continue
		}

		err := st.Err
		if err == nil {
			err = ErrInjected
		}

		return &InjectedError{Op: op, Path: path, Err: err}
	}

	return nil
}

func (f *Faulty) Open(path string) (File, error) {
	if err := f.check(OpOpen, path); err != nil {
		return nil, err
	}

	file, err := f.inner.Open(path)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, fs: f, path: path}, nil
}

func (f *Faulty) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := f.check(OpOpenFile, path); err != nil {
		return nil, err
	}

	file, err := f.inner.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, fs: f, path: path}, nil
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	return f.inner.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.inner.Stat(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

func (f *Faulty) Rename(oldpath, newpath string) error {
	if err := f.check(OpRename, newpath); err != nil {
		return err
	}

	return f.inner.Rename(oldpath, newpath)
}

type faultyFile struct {
	File

	fs   *Faulty
	path string
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	if err := ff.fs.check(OpRead, ff.path); err != nil {
		return 0, err
	}

	return ff.File.Read(p)
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if err := ff.fs.check(OpWrite, ff.path); err != nil {
		return 0, err
	}

	return ff.File.Write(p)
}

func (ff *faultyFile) Seek(offset int64, whence int) (int64, error) {
	if err := ff.fs.check(OpSeek, ff.path); err != nil {
		return 0, err
	}

	return ff.File.Seek(offset, whence)
}

func (ff *faultyFile) Sync() error {
	if err := ff.fs.check(OpSync, ff.path); err != nil {
		return err
	}

	return ff.File.Sync()
}

// Close always closes the inner file so an injected failure does not leak
// the descriptor.
func (ff *faultyFile) Close() error {
	injected := ff.fs.check(OpClose, ff.path)

	err := ff.File.Close()
	if injected != nil {
		return injected
	}

	return err
}

// Compile-time interface check.
var _ FS = (*Faulty)(nil)
