package wordcache

import "errors"

// Sentinel errors returned by wordcache operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, wordcache.ErrCorrupt) {
//	    os.Remove(path)
//	    // rebuild from the word list
//	}
var (
	// ErrNotFound indicates the cache file (or word list) does not exist or
	// cannot be opened. Nothing was read.
	ErrNotFound = errors.New("wordcache: not found")

	// ErrCorrupt indicates the cache file has a zero record width or is too
	// short to hold a single record.
	//
	// Recovery: rebuild the cache.
	ErrCorrupt = errors.New("wordcache: corrupt")

	// ErrReadFailure indicates a seek or read failed while fetching a record,
	// e.g. a payload length that runs past end of file or a file truncated
	// underneath the reader.
	ErrReadFailure = errors.New("wordcache: read failure")

	// ErrOverflow indicates the next payload would exceed the output
	// capacity. Nothing past the previous payload was appended, but the
	// partial result is not returned.
	ErrOverflow = errors.New("wordcache: buffer overflow")

	// ErrInvalidInput indicates invalid arguments (negative count,
	// non-positive capacity or iterations, out of range builder options).
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("wordcache: invalid input")

	// ErrNoWords indicates a word list had no word that passed the filter, so
	// no cache file can be built from it.
	ErrNoWords = errors.New("wordcache: no usable words")
)
