package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/btree"
	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

const (
	wordListPerms = 0o644
	btreeDegree   = 32
	lockSuffix    = ".lock"
)

var (
	errCompressedWordList = errors.New("cannot edit a compressed word list")
	errAddNoWordList      = errors.New("no word list configured (set wordlist_path or pass --file)")
)

// prompter reads one line per call. *liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// AddCmd returns the add command.
func AddCmd(a *app) *Command {
	flags := flag.NewFlagSet("add", flag.ContinueOnError)
	flags.String("file", "", "Word list to edit (default from config)")

	return &Command{
		Flags: flags,
		Usage: "add [--file path]",
		Short: "Interactively add words to the word list",
		Long: `Read words one per line and add them to the word list.

Words must be non-empty and consist of a-z only; duplicates are rejected.
On end of input or Ctrl-C the new words are merged into the list as it is
on disk at that moment and the list is saved sorted. Rebuild the cache with
'wordcache build' afterwards.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			path := a.cfg.WordListPathAbs
			if flags.Changed("file") {
				path, _ = flags.GetString("file")
				path = absPath(a.cfg.EffectiveCwd, path)
			}

			return execAdd(ctx, o, a, path)
		},
	}
}

func execAdd(ctx context.Context, o *IO, a *app, path string) error {
	if path == "" {
		return errAddNoWordList
	}

	switch filepath.Ext(path) {
	case ".gz", ".zst", ".zstd":
		return fmt.Errorf("%w: %s", errCompressedWordList, path)
	}

	words, err := loadWordSet(a, path)
	if err != nil {
		return err
	}

	added := btree.NewOrderedG[string](btreeDegree)

	p := newPrompter(a.in)
	defer func() { _ = p.Close() }()

	for ctx.Err() == nil {
		line, err := p.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		word := strings.TrimSpace(line)

		switch {
		case !isLowerAlpha(word):
			o.Println("rejected:", word, "(empty or contains non a-z)")
		case words.Has(word) || added.Has(word):
			o.Println("already taken:", word)
		default:
			added.ReplaceOrInsert(word)
		}
	}

	if added.Len() == 0 {
		o.Println("no words added")
		return nil
	}

	total, err := mergeWordSet(a, path, added)
	if err != nil {
		return err
	}

	a.log.Debug("word list saved", "path", path, "words", total)

	o.Printf("added %d words, saved %d to %s\n", added.Len(), total, path)

	return nil
}

// mergeWordSet re-reads path under the word list lock, adds the new words
// and saves the result. Returns the saved word count.
func mergeWordSet(a *app, path string, added *btree.BTreeG[string]) (int, error) {
	lock, err := fs.NewLocker(a.fs).Lock(path + lockSuffix)
	if err != nil {
		return 0, fmt.Errorf("locking word list: %w", err)
	}

	defer func() { _ = lock.Close() }()

	words, err := loadWordSet(a, path)
	if err != nil {
		return 0, err
	}

	added.Ascend(func(w string) bool {
		words.ReplaceOrInsert(w)
		return true
	})

	err = saveWordSet(path, words)
	if err != nil {
		return 0, err
	}

	return words.Len(), nil
}

// loadWordSet reads the existing word list. A missing file is an empty set.
func loadWordSet(a *app, path string) (*btree.BTreeG[string], error) {
	words := btree.NewOrderedG[string](btreeDegree)

	data, err := a.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return words, nil
		}

		return nil, fmt.Errorf("reading word list: %w", err)
	}

	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			words.ReplaceOrInsert(line)
		}
	}

	return words, nil
}

func saveWordSet(path string, words *btree.BTreeG[string]) error {
	var sb strings.Builder

	words.Ascend(func(w string) bool {
		sb.WriteString(w)
		sb.WriteByte('\n')

		return true
	})

	err := atomic.WriteFile(path, strings.NewReader(sb.String()))
	if err != nil {
		return fmt.Errorf("writing word list: %w", err)
	}

	// atomic.WriteFile doesn't set permissions for new files
	err = os.Chmod(path, wordListPerms)
	if err != nil {
		return fmt.Errorf("setting word list permissions: %w", err)
	}

	return nil
}

func isLowerAlpha(word string) bool {
	if word == "" {
		return false
	}

	for i := range len(word) {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}

	return true
}

// newPrompter uses liner for the process stdin and plain line reads for
// anything else.
func newPrompter(in io.Reader) prompter {
	if in == os.Stdin {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)

		return state
	}

	if in == nil {
		in = strings.NewReader("")
	}

	return &linePrompter{scanner: bufio.NewScanner(in)}
}

type linePrompter struct {
	scanner *bufio.Scanner
}

func (p *linePrompter) Prompt(string) (string, error) {
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}

	err := p.scanner.Err()
	if err != nil {
		return "", err
	}

	return "", io.EOF
}

func (*linePrompter) Close() error {
	return nil
}
