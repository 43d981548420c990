package wordcache

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// DefaultLockTimeout bounds how long [Builder.Build] waits for another
// builder of the same cache file.
const DefaultLockTimeout = 2 * time.Second

// lockSuffix names the sidecar lock file next to a cache file. The cache
// itself is replaced by rename, so it cannot carry the lock.
const lockSuffix = ".lock"

// BuildOptions configures [ParseWordList] and [Builder].
type BuildOptions struct {
	// MaxWordLen drops longer words. Zero means [DefaultMaxWordLen].
	// Must be at most [MaxPayloadLen].
	MaxWordLen int

	// KeepCase disables upper-casing the first letter of each word.
	KeepCase bool

	// LockTimeout bounds the wait for the build lock. Zero means
	// [DefaultLockTimeout].
	LockTimeout time.Duration

	// Logger receives build diagnostics. Nil discards them.
	Logger *slog.Logger
}

func (o BuildOptions) maxWordLen() (int, error) {
	switch {
	case o.MaxWordLen == 0:
		return DefaultMaxWordLen, nil
	case o.MaxWordLen < 0 || o.MaxWordLen > MaxPayloadLen:
		return 0, fmt.Errorf("%w: max word length %d not in [1, %d]", ErrInvalidInput, o.MaxWordLen, MaxPayloadLen)
	default:
		return o.MaxWordLen, nil
	}
}

// BuildStats reports what [Builder.Build] wrote.
type BuildStats struct {
	Lines int   // lines read from the word list
	Words int   // words kept after filtering
	Width int   // record width written to byte 0
	Bytes int64 // size of the cache file
}

// Encode writes words as a cache file to w.
//
// The record width is the longest word plus one. Every word must be 1 to
// [MaxPayloadLen] bytes long.
func Encode(w io.Writer, words [][]byte) error {
	if len(words) == 0 {
		return ErrNoWords
	}

	longest := 0

	for i, word := range words {
		if len(word) == 0 || len(word) > MaxPayloadLen {
			return fmt.Errorf("%w: word %d is %d bytes, want 1..%d", ErrInvalidInput, i, len(word), MaxPayloadLen)
		}

		longest = max(longest, len(word))
	}

	width := longest + 1
	record := make([]byte, width)
	bw := bufio.NewWriter(w)

	err := bw.WriteByte(byte(width))
	if err != nil {
		return fmt.Errorf("writing record width: %w", err)
	}

	for _, word := range words {
		clear(record)
		record[0] = byte(len(word))
		copy(record[1:], word)

		_, err = bw.Write(record)
		if err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	err = bw.Flush()
	if err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}

	return nil
}

// Builder turns word lists into cache files.
//
// Concurrent builds of the same destination are serialized with a flock on
// dst+".lock". The cache is written to a temp file and renamed into place,
// so samplers never see a half-written file.
type Builder struct {
	fs     fs.FS
	opts   BuildOptions
	locker *fs.Locker
	writer *fs.AtomicWriter
	log    *slog.Logger
}

// NewBuilder returns a Builder using fsys. Panics if fsys is nil.
func NewBuilder(fsys fs.FS, opts BuildOptions) *Builder {
	if fsys == nil {
		panic("fsys is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Builder{
		fs:     fsys,
		opts:   opts,
		locker: fs.NewLocker(fsys),
		writer: fs.NewAtomicWriter(fsys),
		log:    logger,
	}
}

// Build reads the word list at src (plain, ".gz" or ".zst") and writes the
// cache file dst.
//
// Returns [ErrNotFound] if src cannot be opened and [ErrNoWords] if no word
// passes the filter; dst is left untouched in both cases.
func (b *Builder) Build(src, dst string) (BuildStats, error) {
	if _, err := b.opts.maxWordLen(); err != nil {
		return BuildStats{}, err
	}

	timeout := b.opts.LockTimeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}

	start := time.Now()

	lock, err := b.locker.LockWithTimeout(dst+lockSuffix, timeout)
	if err != nil {
		return BuildStats{}, fmt.Errorf("locking %s: %w", dst, err)
	}

	defer func() {
		if closeErr := lock.Close(); closeErr != nil {
			b.log.Warn("releasing build lock", "path", dst+lockSuffix, "error", closeErr)
		}
	}()

	words, lines, err := b.readWords(src)
	if err != nil {
		return BuildStats{}, err
	}

	if len(words) == 0 {
		return BuildStats{}, fmt.Errorf("%s: %w (%d lines read)", src, ErrNoWords, lines)
	}

	err = b.writer.Write(dst, b.writer.DefaultOptions(), func(w io.Writer) error {
		return Encode(w, words)
	})
	if err != nil {
		return BuildStats{}, fmt.Errorf("writing %s: %w", dst, err)
	}

	width := 1
	for _, word := range words {
		width = max(width, len(word)+1)
	}

	stats := BuildStats{
		Lines: lines,
		Words: len(words),
		Width: width,
		Bytes: offRecords + int64(len(words))*int64(width),
	}

	b.log.Debug("built word cache",
		"src", src,
		"dst", dst,
		"lines", stats.Lines,
		"words", stats.Words,
		"width", stats.Width,
		"bytes", stats.Bytes,
		"took", time.Since(start),
	)

	return stats, nil
}

func (b *Builder) readWords(src string) ([][]byte, int, error) {
	rc, err := openWordList(b.fs, src)
	if err != nil {
		return nil, 0, err
	}

	defer func() { _ = rc.Close() }()

	words, lines, err := ParseWordList(rc, b.opts)
	if err != nil {
		return nil, lines, fmt.Errorf("%s: %w", src, err)
	}

	return words, lines, nil
}
