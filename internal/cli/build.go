package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

var errNoWordList = errors.New("no word list configured (set wordlist_path or pass --src)")

// BuildCmd returns the build command.
func BuildCmd(a *app) *Command {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.String("src", "", "Word list to read, may end in .gz or .zst (default from config)")
	fs.String("dst", "", "Cache file to write (default from config)")
	fs.Int("max-word-len", 0, "Drop words longer than this (default from config)")
	fs.Bool("keep-case", false, "Do not capitalize the first letter of each word")

	return &Command{
		Flags: fs,
		Usage: "build [--src path] [--dst path]",
		Short: "Build the cache file from a word list",
		Long: `Read a word list with one word per line and write it as a cache file.

Words must be 1 to max-word-len bytes in the range '0'..'z'; other lines are
skipped. The cache file is replaced atomically, so concurrent samplers see
either the old or the new file.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execBuild(o, a, fs)
		},
	}
}

func execBuild(o *IO, a *app, fs *flag.FlagSet) error {
	src := a.cfg.WordListPathAbs
	if fs.Changed("src") {
		src, _ = fs.GetString("src")
		src = absPath(a.cfg.EffectiveCwd, src)
	}

	if src == "" {
		return errNoWordList
	}

	dst := a.cfg.CachePathAbs
	if fs.Changed("dst") {
		dst, _ = fs.GetString("dst")
		dst = absPath(a.cfg.EffectiveCwd, dst)
	}

	opts := buildOptions(a)

	if fs.Changed("max-word-len") {
		opts.MaxWordLen, _ = fs.GetInt("max-word-len")
	}

	if fs.Changed("keep-case") {
		opts.KeepCase, _ = fs.GetBool("keep-case")
	}

	stats, err := wordcache.NewBuilder(a.fs, opts).Build(src, dst)
	if err != nil {
		return fmt.Errorf("building %s: %w", dst, err)
	}

	o.Printf("built %s: %d words from %d lines, width %d, %d bytes\n", dst, stats.Words, stats.Lines, stats.Width, stats.Bytes)

	if skipped := stats.Lines - stats.Words; skipped > 0 {
		o.Printf("skipped %d lines\n", skipped)
	}

	return nil
}

func buildOptions(a *app) wordcache.BuildOptions {
	return wordcache.BuildOptions{
		MaxWordLen: a.cfg.MaxWordLen,
		KeepCase:   a.cfg.KeepCase,
		Logger:     a.log,
	}
}
