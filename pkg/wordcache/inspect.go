package wordcache

import (
	"bufio"
	"fmt"
	"io"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// Info describes a cache file.
type Info struct {
	Path     string `json:"path"     yaml:"path"`
	Size     int64  `json:"size"     yaml:"size"`
	Width    int    `json:"width"    yaml:"width"`
	Slots    int64  `json:"slots"    yaml:"slots"`
	Trailing int64  `json:"trailing" yaml:"trailing"` // bytes after the last full record, never drawn
	Longest  int    `json:"longest"  yaml:"longest"`  // longest payload length byte seen
	Empty    int64  `json:"empty"    yaml:"empty"`    // slots with a zero length byte
	Overlong int64  `json:"overlong" yaml:"overlong"` // slots whose length byte exceeds width-1
}

// Inspect validates the cache file at path like [Sampler.Sample] does and
// scans every slot.
//
// Overlong slots are counted, not rejected: sampling one of them reads into
// the following record, or fails with [ErrReadFailure] at end of file.
func Inspect(fsys fs.FS, path string) (Info, error) {
	file, lay, err := openCache(fsys, path)
	if err != nil {
		return Info{}, err
	}

	defer func() { _ = file.Close() }()

	info := Info{
		Path:     path,
		Size:     lay.size,
		Width:    int(lay.width),
		Slots:    lay.slots,
		Trailing: lay.trailing,
	}

	br := bufio.NewReader(file)
	record := make([]byte, lay.width)

	for slot := range lay.slots {
		_, err := io.ReadFull(br, record)
		if err != nil {
			return Info{}, fmt.Errorf("%s: %w: slot %d: %w", path, ErrReadFailure, slot, err)
		}

		n := int(record[0])

		info.Longest = max(info.Longest, n)

		if n == 0 {
			info.Empty++
		}

		if n > info.Width-1 {
			info.Overlong++
		}
	}

	return info, nil
}
