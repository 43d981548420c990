// test_helpers_test.go - Shared helpers for wordcache tests.

package wordcache_test

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/calvinalkan/wordcache/pkg/fs"
	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

// writeFile writes data to name inside a fresh temp dir and returns the path.
func writeFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)

	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// encodeCache builds a cache file from words.
func encodeCache(tb testing.TB, words ...string) string {
	tb.Helper()

	raw := make([][]byte, len(words))
	for i, w := range words {
		raw[i] = []byte(w)
	}

	var buf bytes.Buffer

	err := wordcache.Encode(&buf, raw)
	if err != nil {
		tb.Fatalf("Encode: %v", err)
	}

	return writeFile(tb, "words.cache", buf.Bytes())
}

// referenceSlots replays the slot indices Sample draws for seed from a
// file with the given slot count.
func referenceSlots(slots, count int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, wordcache.PCGStream))

	out := make([]int, count)
	for i := range out {
		out[i] = int(rng.Uint64N(uint64(slots)))
	}

	return out
}

// referenceSample concatenates words[index] for each draw Sample makes for
// seed. words must be the slot payloads in file order.
func referenceSample(words []string, count int, seed uint64) string {
	var out []byte
	for _, index := range referenceSlots(len(words), count, seed) {
		out = append(out, words[index]...)
	}

	return string(out)
}

// trackingFS records how many files were opened and closed.
type trackingFS struct {
	fs.FS

	mu     sync.Mutex
	opened int
	closed int
}

func newTrackingFS(inner fs.FS) *trackingFS {
	return &trackingFS{FS: inner}
}

func (t *trackingFS) Open(path string) (fs.File, error) {
	f, err := t.FS.Open(path)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.opened++
	t.mu.Unlock()

	return &trackedFile{File: f, fs: t}, nil
}

func (t *trackingFS) counts() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.opened, t.closed
}

type trackedFile struct {
	fs.File

	fs *trackingFS
}

func (f *trackedFile) Close() error {
	f.fs.mu.Lock()
	f.fs.closed++
	f.fs.mu.Unlock()

	return f.File.Close()
}
