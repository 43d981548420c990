package cli

import (
	"context"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

// SampleCmd returns the sample command.
func SampleCmd(a *app) *Command {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.IntP("words", "n", 0, "Number of words to draw (default from config)")
	fs.Uint64("seed", 0, "PRNG seed (default: current time)")
	fs.Int("capacity", 0, "Maximum output size in bytes (default from config)")

	return &Command{
		Flags: fs,
		Usage: "sample [-n words] [--seed N]",
		Short: "Concatenate randomly drawn words",
		Long: `Draw words from the cache file and print them concatenated.

The same seed, word count and cache file always print the same output.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execSample(o, a, fs)
		},
	}
}

func execSample(o *IO, a *app, fs *flag.FlagSet) error {
	words, _ := fs.GetInt("words")
	if !fs.Changed("words") {
		words = a.cfg.Words
	}

	capacity, _ := fs.GetInt("capacity")
	if !fs.Changed("capacity") {
		capacity = a.cfg.Capacity
	}

	seed, _ := fs.GetUint64("seed")
	if !fs.Changed("seed") {
		seed = uint64(time.Now().UnixMicro())
	}

	out, err := wordcache.NewSampler(a.fs).Sample(a.cfg.CachePathAbs, words, seed, capacity)
	if err != nil {
		return fmt.Errorf("sampling %s: %w", a.cfg.CachePath, err)
	}

	a.log.Debug("sampled", "seed", seed, "words", words, "bytes", len(out))

	o.Println(string(out))

	return nil
}
