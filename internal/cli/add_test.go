package cli_test

import (
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/wordcache/internal/cli"
	"github.com/calvinalkan/wordcache/pkg/fs"
)

// sideEffectReader runs onRead once before the first read.
type sideEffectReader struct {
	r      io.Reader
	once   sync.Once
	onRead func()
}

func (s *sideEffectReader) Read(p []byte) (int, error) {
	s.once.Do(s.onRead)
	return s.r.Read(p)
}

func Test_Add_Saves_New_Words_Sorted(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("wordlist.txt", "mango\napple\n")

	stdout, stderr, exitCode := c.RunWithInput("zebra\nbanana\n", "add")

	if got, want := exitCode, 0; got != want {
		t.Fatalf("exitCode=%d, want=%d\nstderr: %s", got, want, stderr)
	}

	cli.AssertContains(t, stdout, "added 2 words, saved 4")

	if got, want := c.ReadFile("wordlist.txt"), "apple\nbanana\nmango\nzebra\n"; got != want {
		t.Errorf("wordlist=%q, want=%q", got, want)
	}
}

func Test_Add_Rejects_Invalid_And_Duplicate_Words(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("wordlist.txt", "apple\n")

	input := "apple\nApple\n\nhas space\nkiwi\nkiwi\nx1\n"

	stdout, _, exitCode := c.RunWithInput(input, "add")

	if got, want := exitCode, 0; got != want {
		t.Fatalf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "already taken: apple")
	cli.AssertContains(t, stdout, "already taken: kiwi")
	cli.AssertContains(t, stdout, "rejected: Apple")
	cli.AssertContains(t, stdout, "rejected: has space")
	cli.AssertContains(t, stdout, "rejected: x1")
	cli.AssertContains(t, stdout, "added 1 words, saved 2")

	if got, want := c.ReadFile("wordlist.txt"), "apple\nkiwi\n"; got != want {
		t.Errorf("wordlist=%q, want=%q", got, want)
	}
}

func Test_Add_Creates_Missing_Word_List(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, _, exitCode := c.RunWithInput("pear\n", "add", "--file", "new.txt")
	if exitCode != 0 {
		t.Fatalf("exitCode=%d, want=0", exitCode)
	}

	if got, want := c.ReadFile("new.txt"), "pear\n"; got != want {
		t.Errorf("wordlist=%q, want=%q", got, want)
	}
}

func Test_Add_Leaves_File_Untouched_When_Nothing_Added(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("wordlist.txt", "b\na\n")

	stdout := c.MustRun("add")

	cli.AssertContains(t, stdout, "no words added")

	if got, want := c.ReadFile("wordlist.txt"), "b\na\n"; got != want {
		t.Errorf("wordlist=%q, want=%q", got, want)
	}
}

func Test_Add_Refuses_Compressed_Word_List(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--wordlist", "words.txt.gz", "add")

	cli.AssertContains(t, stderr, "cannot edit a compressed word list")
}

func Test_Add_Merges_Words_Saved_By_Another_Session(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("wordlist.txt", "apple\n")

	in := &sideEffectReader{
		r: strings.NewReader("kiwi\n"),
		onRead: func() {
			require.NoError(t, os.WriteFile(c.Path("wordlist.txt"), []byte("apple\nmango\n"), 0o600))
		},
	}

	stdout, stderr, exitCode := c.RunWithInput(in, "add")
	if exitCode != 0 {
		t.Fatalf("exitCode=%d, want=0\nstderr: %s", exitCode, stderr)
	}

	cli.AssertContains(t, stdout, "added 1 words, saved 3")

	if got, want := c.ReadFile("wordlist.txt"), "apple\nkiwi\nmango\n"; got != want {
		t.Errorf("wordlist=%q, want=%q", got, want)
	}
}

func Test_Add_Waits_For_Word_List_Lock_Before_Saving(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("wordlist.txt", "apple\n")

	held, err := fs.NewLocker(fs.NewReal()).TryLock(c.Path("wordlist.txt.lock"))
	require.NoError(t, err)

	done := make(chan int, 1)

	go func() {
		_, _, code := c.RunWithInput("pear\n", "add")
		done <- code
	}()

	select {
	case <-done:
		t.Fatal("add saved while the word list lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	require.Equal(t, "apple\n", c.ReadFile("wordlist.txt"))
	require.NoError(t, held.Close())

	select {
	case code := <-done:
		require.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal("add did not finish after the lock was released")
	}

	require.Equal(t, "apple\npear\n", c.ReadFile("wordlist.txt"))
}
