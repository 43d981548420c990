package fs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

func TestFaulty_FailsOnlyMatchingOpAndPath_AfterSkip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	other := filepath.Join(dir, "other")

	for _, p := range []string{target, other} {
		if err := os.WriteFile(p, []byte("data"), 0o600); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	custom := errors.New("disk on fire")
	faulty := fs.NewFaulty(fs.NewReal(), fs.Fault{Op: fs.OpOpen, Path: target, Skip: 1, Err: custom})

	first, err := faulty.Open(target)
	if err != nil {
		t.Fatalf("first Open should pass: %v", err)
	}

	_ = first.Close()

	_, err = faulty.Open(target)
	if !errors.Is(err, custom) || !fs.IsInjected(err) {
		t.Fatalf("second Open err=%v, want injected %v", err, custom)
	}

	f, err := faulty.Open(other)
	if err != nil {
		t.Fatalf("Open other: %v", err)
	}

	_ = f.Close()

	if _, err := faulty.ReadFile(target); err != nil {
		t.Fatalf("ReadFile has no fault: %v", err)
	}
}

func TestFaulty_FileOps_UseOpenPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("abcdef"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	faulty := fs.NewFaulty(fs.NewReal(), fs.Fault{Op: fs.OpRead, Path: path})

	f, err := faulty.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("Seek has no fault: %v", err)
	}

	_, err = f.Read(make([]byte, 2))
	if !errors.Is(err, fs.ErrInjected) {
		t.Fatalf("Read err=%v, want ErrInjected", err)
	}
}
