// Package fs provides the filesystem seam used by wordcache.
//
// The main types are:
//   - [FS]: interface for the filesystem operations wordcache needs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Faulty]: testing implementation that fails chosen operations on chosen paths
//   - [Locker]: flock(2) based advisory locks
//   - [AtomicWriter]: temp file + rename writes
//
// Example usage:
//
//	fsys := fs.NewReal()
//	f, err := fsys.Open("words.cache")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File]. Cache readers only need
// Read, Seek, Stat and Close; writers additionally use Write, Sync and Chmod.
//
// Implementations must return a real OS descriptor from [File.Fd] for as long
// as the file is open, since [Locker] hands it to flock(2).
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor. See [os.File.Fd].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Chmod changes the mode of the file. See [os.File.Chmod].
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations used for reading, building and
// locking cache files.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection (see [Faulty]).
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file or directory. See [os.Rename].
	// Atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
