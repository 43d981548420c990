package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrAtomicWriteDirSync indicates the parent directory could not be synced after rename.
//
// The new file is in place but durability is not guaranteed.
var ErrAtomicWriteDirSync = errors.New("dir sync")

const atomicWriteMaxAttempts = 10000

var atomicWriteCounter atomic.Uint64

// AtomicWriter writes files through a temp file in the same directory followed
// by a rename, so readers see either the old or the new content.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
// Panics if fs is nil.
func NewAtomicWriter(fs FS) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fs}
}

// AtomicWriteOptions configures [AtomicWriter.Write].
type AtomicWriteOptions struct {
	// SyncDir controls whether the parent directory is synced after rename.
	SyncDir bool

	// Perm is applied to the file with an explicit chmod. Must be non-zero.
	Perm os.FileMode
}

// DefaultOptions returns SyncDir=true and 0644.
func (*AtomicWriter) DefaultOptions() AtomicWriteOptions {
	return AtomicWriteOptions{
		SyncDir: true,
		Perm:    0o644,
	}
}

// Write streams fn's output into a temp file, syncs it and renames it over
// path. fn receives the temp file; if fn fails nothing is renamed and the
// temp file is removed.
//
// If only the final directory sync fails, the returned error satisfies
// errors.Is(err, ErrAtomicWriteDirSync).
func (w *AtomicWriter) Write(path string, opts AtomicWriteOptions, fn func(io.Writer) error) error {
	if fn == nil {
		panic("fn is nil")
	}

	if path == "" {
		return errors.New("path is empty")
	}

	if opts.Perm == 0 {
		return errors.New("opts.Perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)

	tmpFile, tmpPath, err := w.createTemp(dir, base, opts.Perm)
	if err != nil {
		return err
	}

	cleanup := func() error {
		closeErr := tmpFile.Close()
		if closeErr != nil {
			closeErr = fmt.Errorf("close temp file %q: %w", tmpPath, closeErr)
		}

		return errors.Join(closeErr, w.removeTemp(tmpPath))
	}

	if err := tmpFile.Chmod(opts.Perm); err != nil {
		return errors.Join(fmt.Errorf("chmod temp file %q: %w", tmpPath, err), cleanup())
	}

	if err := fn(tmpFile); err != nil {
		return errors.Join(err, cleanup())
	}

	if err := tmpFile.Sync(); err != nil {
		return errors.Join(fmt.Errorf("sync temp file %q: %w", tmpPath, err), cleanup())
	}

	// Close before the rename so a failed close never publishes the file.
	if err := tmpFile.Close(); err != nil {
		return errors.Join(fmt.Errorf("close temp file %q: %w", tmpPath, err), w.removeTemp(tmpPath))
	}

	if err := w.fs.Rename(tmpPath, path); err != nil {
		return errors.Join(fmt.Errorf("rename: %w", err), w.removeTemp(tmpPath))
	}

	if opts.SyncDir {
		return w.syncDir(dir)
	}

	return nil
}

func (w *AtomicWriter) createTemp(dir, base string, perm os.FileMode) (File, string, error) {
	for range atomicWriteMaxAttempts {
		seq := atomicWriteCounter.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, "", fmt.Errorf("create temp file: %w", err)
	}

	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func (w *AtomicWriter) removeTemp(path string) error {
	err := w.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}

	return nil
}

func (w *AtomicWriter) syncDir(dir string) error {
	dirFd, err := w.fs.Open(dir)
	if err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("open dir %q: %w", dir, err))
	}

	syncErr := dirFd.Sync()
	closeErr := dirFd.Close()

	if syncErr != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("%q: %w", dir, syncErr), closeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close dir %q: %w", dir, closeErr)
	}

	return nil
}
