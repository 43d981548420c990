// Package wordcache samples seeded pseudo-random words from a precomputed
// fixed-width cache file.
//
// A cache file is a one byte record width followed by records of exactly
// that width. Every record is a one byte payload length, the payload, and
// zero padding:
//
//	offset 0:   u8 record_width (>= 1)
//	offset 1..: records, each record_width bytes:
//	              u8 payload_length
//	              payload_length bytes of payload
//	              record_width - 1 - payload_length bytes of padding
//
// Trailing bytes that do not form a full record are never selected.
//
// # Basic Usage
//
//	words, err := wordcache.Sample("words.cache", 3, seed, 256)
//	if errors.Is(err, wordcache.ErrNotFound) {
//	    // build it from a word list
//	    _, err = wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{}).Build("words.txt", "words.cache")
//	}
//
// The same (file, count, seed) always produces the same bytes. Payloads are
// concatenated with no delimiter.
//
// # Concurrency
//
// [Sample] keeps all state, including its random stream, on the call stack,
// so any number of goroutines may sample the same file concurrently. Cache
// files are replaced atomically by [Builder.Build], so a sampler sees either
// the old or the new file, never a partial one.
//
// # Error Handling
//
// Every failure is terminal for the call. Check the cause with [errors.Is]:
// [ErrNotFound], [ErrCorrupt], [ErrReadFailure], [ErrOverflow],
// [ErrInvalidInput].
package wordcache
