package wordcache_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/wordcache/pkg/fs"
	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

func Test_Encode_Writes_Width_Byte_And_Padded_Records(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := wordcache.Encode(&buf, [][]byte{[]byte("hi"), []byte("hey")})
	require.NoError(t, err)

	want := []byte{
		0x04,
		0x02, 'h', 'i', 0x00,
		0x03, 'h', 'e', 'y',
	}

	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Fatalf("encoded bytes (-want +got):\n%s", diff)
	}
}

func Test_Encode_Rejects_Empty_And_Oversized_Words(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.ErrorIs(t, wordcache.Encode(&buf, nil), wordcache.ErrNoWords)
	require.ErrorIs(t, wordcache.Encode(&buf, [][]byte{{}}), wordcache.ErrInvalidInput)
	require.ErrorIs(t, wordcache.Encode(&buf, [][]byte{bytes.Repeat([]byte("a"), 255)}), wordcache.ErrInvalidInput)
	require.NoError(t, wordcache.Encode(&buf, [][]byte{bytes.Repeat([]byte("a"), 254)}))
}

func Test_ParseWordList_Filters_And_Capitalizes(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"apple",
		"",
		"Banana",
		"cherry\r",
		"has space",
		"dash-ed",
		"zebra",
		"zebra",
		"9lives",
		strings.Repeat("x", 86),
		strings.Repeat("y", 85),
		"tail",
	}, "\n")

	words, lines, err := wordcache.ParseWordList(strings.NewReader(input), wordcache.BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 12, lines)

	got := make([]string, len(words))
	for i, w := range words {
		got[i] = string(w)
	}

	want := []string{"Apple", "Banana", "Cherry", "Zebra", "Zebra", "9lives", "Y" + strings.Repeat("y", 84), "Tail"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("words (-want +got):\n%s", diff)
	}
}

func Test_ParseWordList_Keeps_Case_And_Honors_MaxWordLen(t *testing.T) {
	t.Parallel()

	words, _, err := wordcache.ParseWordList(
		strings.NewReader("ab\nabc\nabcd\n"),
		wordcache.BuildOptions{MaxWordLen: 3, KeepCase: true},
	)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("ab"), []byte("abc")}, words)

	_, _, err = wordcache.ParseWordList(strings.NewReader("a"), wordcache.BuildOptions{MaxWordLen: 255})
	require.ErrorIs(t, err, wordcache.ErrInvalidInput)
}

func Test_Builder_Build_Writes_Cache_That_Samples_Only_Listed_Words(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "words.txt")
	dst := filepath.Join(dir, "words.cache")

	require.NoError(t, os.WriteFile(src, []byte("red\ngreen\nblue\n"), 0o600))

	stats, err := wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{}).Build(src, dst)
	require.NoError(t, err)

	want := wordcache.BuildStats{Lines: 3, Words: 3, Width: 6, Bytes: 1 + 3*6}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.Equal(t, stats.Bytes, info.Size())

	got, err := wordcache.Sample(dst, 50, 3, 1024)
	require.NoError(t, err)

	rest := string(got)
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "Red"):
			rest = rest[len("Red"):]
		case strings.HasPrefix(rest, "Green"):
			rest = rest[len("Green"):]
		case strings.HasPrefix(rest, "Blue"):
			rest = rest[len("Blue"):]
		default:
			t.Fatalf("unexpected word at %q", rest)
		}
	}
}

func Test_Builder_Build_Reads_Compressed_Word_Lists(t *testing.T) {
	t.Parallel()

	plain := []byte("one\ntwo\nthree\n")

	var gz bytes.Buffer

	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)

	zst := zw.EncodeAll(plain, nil)
	require.NoError(t, zw.Close())

	cases := []struct {
		name string
		data []byte
	}{
		{name: "words.txt.gz", data: gz.Bytes()},
		{name: "words.txt.zst", data: zst},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := writeFile(t, tc.name, tc.data)
			dst := filepath.Join(filepath.Dir(src), "words.cache")

			stats, err := wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{}).Build(src, dst)
			require.NoError(t, err)
			require.Equal(t, 3, stats.Words)
			require.Equal(t, 6, stats.Width)

			info, err := wordcache.Inspect(fs.NewReal(), dst)
			require.NoError(t, err)
			require.Equal(t, int64(3), info.Slots)
		})
	}
}

func Test_Builder_Build_Returns_ErrNotFound_When_Source_Missing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "words.cache")

	_, err := wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{}).Build(filepath.Join(dir, "nope.txt"), dst)
	require.ErrorIs(t, err, wordcache.ErrNotFound)

	_, statErr := os.Stat(dst)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func Test_Builder_Build_Returns_ErrNoWords_And_Keeps_Old_Cache(t *testing.T) {
	t.Parallel()

	dst := encodeCache(t, "Old")
	src := filepath.Join(filepath.Dir(dst), "words.txt")
	require.NoError(t, os.WriteFile(src, []byte("not valid\n\n!!!\n"), 0o600))

	_, err := wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{}).Build(src, dst)
	require.ErrorIs(t, err, wordcache.ErrNoWords)

	got, err := wordcache.Sample(dst, 2, 1, 64)
	require.NoError(t, err)
	require.Equal(t, "OldOld", string(got))
}

func Test_Builder_Build_Leaves_Old_Cache_And_No_Temp_Files_When_Rename_Fails(t *testing.T) {
	t.Parallel()

	dst := encodeCache(t, "Old")
	dir := filepath.Dir(dst)
	src := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(src, []byte("new\n"), 0o600))

	faulty := fs.NewFaulty(fs.NewReal(), fs.Fault{Op: fs.OpRename, Path: dst})

	_, err := wordcache.NewBuilder(faulty, wordcache.BuildOptions{}).Build(src, dst)
	require.Error(t, err)
	require.True(t, fs.IsInjected(err))

	got, err := wordcache.Sample(dst, 1, 1, 64)
	require.NoError(t, err)
	require.Equal(t, "Old", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp-", "temp file left behind")
	}
}

func Test_Builder_Build_Returns_ErrWouldBlock_When_Another_Build_Holds_Lock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "words.txt")
	dst := filepath.Join(dir, "words.cache")
	require.NoError(t, os.WriteFile(src, []byte("word\n"), 0o600))

	held, err := fs.NewLocker(fs.NewReal()).TryLock(dst + ".lock")
	require.NoError(t, err)

	defer func() { _ = held.Close() }()

	_, err = wordcache.NewBuilder(fs.NewReal(), wordcache.BuildOptions{LockTimeout: 20 * time.Millisecond}).Build(src, dst)
	require.ErrorIs(t, err, fs.ErrWouldBlock)
}
