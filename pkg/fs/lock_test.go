package fs_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

func TestLocker_TryLock_ReturnsErrWouldBlock_WhenHeld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "locks", "words.cache.lock")
	locker := fs.NewLocker(fs.NewReal())

	held, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}

	_, err = locker.TryLock(path)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("second TryLock err=%v, want ErrWouldBlock", err)
	}

	err = held.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}

	_ = again.Close()
}

func TestLocker_LockWithTimeout_TimesOut_WhenHeld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "words.cache.lock")
	locker := fs.NewLocker(fs.NewReal())

	held, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	defer func() { _ = held.Close() }()

	start := time.Now()

	_, err = locker.LockWithTimeout(path, 30*time.Millisecond)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("LockWithTimeout err=%v, want ErrWouldBlock", err)
	}

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("returned after %s, before the timeout", elapsed)
	}
}

func TestLocker_LockWithTimeout_RejectsNonPositiveTimeout(t *testing.T) {
	t.Parallel()

	_, err := fs.NewLocker(fs.NewReal()).LockWithTimeout(filepath.Join(t.TempDir(), "x.lock"), 0)
	if !errors.Is(err, fs.ErrInvalidTimeout) {
		t.Fatalf("err=%v, want ErrInvalidTimeout", err)
	}
}

func TestLock_Close_IsIdempotent(t *testing.T) {
	t.Parallel()

	lock, err := fs.NewLocker(fs.NewReal()).Lock(filepath.Join(t.TempDir(), "x.lock"))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
