package wordcache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// DefaultMaxWordLen is the longest word kept by [ParseWordList] when
// [BuildOptions.MaxWordLen] is zero.
const DefaultMaxWordLen = 85

// Accepted word bytes, inclusive. The range covers digits, upper and lower
// case ASCII letters and a few punctuation bytes between them.
const (
	wordByteMin = '0'
	wordByteMax = 'z'
)

// ParseWordList reads a newline separated word list and returns the words
// that pass the filter, in input order, plus the number of lines read.
//
// A word is kept when its length is in [1, MaxWordLen] and every byte is in
// '0'..'z'. A trailing '\r' is stripped first. Unless opts.KeepCase is set,
// a leading a-z is upper-cased. Duplicates are kept.
func ParseWordList(r io.Reader, opts BuildOptions) ([][]byte, int, error) {
	maxLen, err := opts.maxWordLen()
	if err != nil {
		return nil, 0, err
	}

	br := bufio.NewReader(r)

	var (
		words [][]byte
		lines int
	)

	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, lines, fmt.Errorf("reading word list: %w", readErr)
		}

		if len(line) > 0 {
			lines++

			word := bytes.TrimSuffix(bytes.TrimSuffix(line, []byte{'\n'}), []byte{'\r'})
			if validWord(word, maxLen) {
				if !opts.KeepCase && 'a' <= word[0] && word[0] <= 'z' {
					word[0] -= 'a' - 'A'
				}

				words = append(words, word)
			}
		}

		if readErr != nil {
			return words, lines, nil
		}
	}
}

func validWord(word []byte, maxLen int) bool {
	if len(word) < 1 || len(word) > maxLen {
		return false
	}

	for _, c := range word {
		if c < wordByteMin || c > wordByteMax {
			return false
		}
	}

	return true
}

// openWordList opens path for reading, transparently decompressing ".gz"
// and ".zst" files.
func openWordList(fsys fs.FS, path string) (io.ReadCloser, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}

		return &stackedReader{Reader: zr, closers: []io.Closer{zr, file}}, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}

		rc := zr.IOReadCloser()

		return &stackedReader{Reader: rc, closers: []io.Closer{rc, file}}, nil
	default:
		return file, nil
	}
}

// stackedReader reads from a decompressor and closes it before the file
// underneath.
type stackedReader struct {
	io.Reader

	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}
