package wordcache

import (
	"fmt"
	"io"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// Cache file format constants.
const (
	// Offset of the record width byte.
	offWidth = 0

	// Offset of the first record.
	offRecords = 1

	// MaxRecordWidth is the largest width a single byte can hold.
	MaxRecordWidth = 255

	// MaxPayloadLen is the largest payload that fits a record of
	// [MaxRecordWidth] next to its length byte.
	MaxPayloadLen = MaxRecordWidth - 1
)

// layout describes an opened cache file.
type layout struct {
	width    int64
	slots    int64
	trailing int64
	size     int64
}

// recordOffset returns the byte offset of slot index.
func (l layout) recordOffset(index int64) int64 {
	return offRecords + index*l.width
}

// readLayout reads the width byte from the start of f and derives the slot
// count from the file size. f must be positioned at offset 0.
//
// Returns ErrCorrupt for a zero width or a file shorter than one record.
func readLayout(f fs.File) (layout, error) {
	info, err := f.Stat()
	if err != nil {
		return layout{}, fmt.Errorf("%w: stat: %w", ErrReadFailure, err)
	}

	if info.IsDir() {
		return layout{}, fmt.Errorf("%w: is a directory", ErrNotFound)
	}

	size := info.Size()
	if size < offRecords {
		return layout{}, fmt.Errorf("%w: empty file", ErrCorrupt)
	}

	var hdr [offRecords]byte

	_, err = io.ReadFull(f, hdr[:])
	if err != nil {
		return layout{}, fmt.Errorf("%w: reading record width: %w", ErrReadFailure, err)
	}

	width := int64(hdr[offWidth])
	if width == 0 {
		return layout{}, fmt.Errorf("%w: record width is 0", ErrCorrupt)
	}

	body := size - offRecords
	if body < width {
		return layout{}, fmt.Errorf("%w: %d bytes after header, record width %d", ErrCorrupt, body, width)
	}

	return layout{
		width:    width,
		slots:    body / width,
		trailing: body % width,
		size:     size,
	}, nil
}

// openCache opens path through fsys and validates its layout. On success the
// caller owns the returned file.
func openCache(fsys fs.FS, path string) (fs.File, layout, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, layout{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	lay, err := readLayout(f)
	if err != nil {
		_ = f.Close()

		return nil, layout{}, fmt.Errorf("%s: %w", path, err)
	}

	return f, lay, nil
}
