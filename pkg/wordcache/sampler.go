package wordcache

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// pcgStream selects the PCG stream. The caller's seed is the PCG state, the
// stream is fixed so a seed maps to one sequence everywhere.
const pcgStream = 0x9e3779b97f4a7c15

// Sampler draws words from cache files read through an [fs.FS].
//
// A Sampler holds no per-call state and is safe for concurrent use.
type Sampler struct {
	fs fs.FS
}

// NewSampler returns a Sampler reading through fsys.
// Panics if fsys is nil.
func NewSampler(fsys fs.FS) *Sampler {
	if fsys == nil {
		panic("fsys is nil")
	}

	return &Sampler{fs: fsys}
}

var defaultSampler = NewSampler(fs.NewReal())

// Sample draws count words from the cache file at path using the real
// filesystem. See [Sampler.Sample].
func Sample(path string, count int, seed uint64, capacity int) ([]byte, error) {
	return defaultSampler.Sample(path, count, seed, capacity)
}

// SampleN runs [Sample] iterations times. See [Sampler.SampleN].
func SampleN(path string, count int, seed uint64, capacity, iterations int) ([]byte, error) {
	return defaultSampler.SampleN(path, count, seed, capacity, iterations)
}

// Sample draws count records uniformly (with replacement) from the cache
// file at path and returns their payloads concatenated, no delimiter.
//
// The random stream is a PCG generator seeded with seed and owned by this
// call, so the same file, count and seed always give the same bytes.
//
// The result never exceeds capacity bytes. If a payload would not fit,
// Sample stops and returns [ErrOverflow]; there is no truncated result.
// count == 0 returns an empty result once the file passes validation.
//
// The file is closed on every return path.
func (s *Sampler) Sample(path string, count int, seed uint64, capacity int) ([]byte, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count %d is negative", ErrInvalidInput, count)
	}

	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d must be positive", ErrInvalidInput, capacity)
	}

	file, lay, err := openCache(s.fs, path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = file.Close() }()

	rng := rand.New(rand.NewPCG(seed, pcgStream))
	acc := newAccumulator(capacity)

	var scratch [MaxRecordWidth]byte

	for draw := range count {
		index := int64(rng.Uint64N(uint64(lay.slots)))

		payload, err := readRecord(file, lay, index, scratch[:])
		if err != nil {
			return nil, fmt.Errorf("%s: slot %d: %w", path, index, err)
		}

		err = acc.append(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: draw %d of %d: %w", path, draw+1, count, err)
		}
	}

	return acc.bytes(), nil
}

// SampleN calls [Sampler.Sample] iterations times with seed, seed+1, ...
// and returns the last result. It exists to measure throughput.
//
// The first failing iteration stops the loop and its error is returned.
// The seed wraps around at the uint64 limit.
func (s *Sampler) SampleN(path string, count int, seed uint64, capacity, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations %d must be positive", ErrInvalidInput, iterations)
	}

	var out []byte

	for i := range iterations {
		iterSeed := seed + uint64(i)

		var err error

		out, err = s.Sample(path, count, iterSeed, capacity)
		if err != nil {
			return nil, fmt.Errorf("iteration %d (seed %d): %w", i, iterSeed, err)
		}
	}

	return out, nil
}

// readRecord reads the payload of slot index into scratch and returns the
// filled prefix. scratch must hold at least [MaxRecordWidth] bytes; it is
// overwritten by the next call.
func readRecord(f fs.File, lay layout, index int64, scratch []byte) ([]byte, error) {
	off := lay.recordOffset(index)

	_, err := f.Seek(off, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("%w: seek to %d: %w", ErrReadFailure, off, err)
	}

	_, err = io.ReadFull(f, scratch[:1])
	if err != nil {
		return nil, fmt.Errorf("%w: length byte at %d: %w", ErrReadFailure, off, err)
	}

	payload := scratch[:scratch[0]]

	_, err = io.ReadFull(f, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %d byte payload at %d: %w", ErrReadFailure, len(payload), off+1, err)
	}

	return payload, nil
}
