package cli

import (
	"context"
	"errors"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

var errCountNotPositive = errors.New("--count must be at least 1")

// IDCmd returns the id command.
func IDCmd(a *app) *Command {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.Int("count", 1, "Number of IDs to print")

	return &Command{
		Flags: fs,
		Usage: "id [--count N]",
		Short: "Generate word based IDs",
		Long: `Print IDs made of randomly drawn words, one per line.

If the cache file is missing it is built from the word list first.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execID(o, a, fs)
		},
	}
}

func execID(o *IO, a *app, fs *flag.FlagSet) error {
	count, _ := fs.GetInt("count")
	if count < 1 {
		return errCountNotPositive
	}

	gen, err := wordcache.NewIDGenerator(a.fs, wordcache.IDOptions{
		CachePath:    a.cfg.CachePathAbs,
		WordListPath: a.cfg.WordListPathAbs,
		Words:        a.cfg.Words,
		Capacity:     a.cfg.Capacity,
		Seed:         newSeedSource(),
		Build:        buildOptions(a),
		Logger:       a.log,
	})
	if err != nil {
		return err
	}

	for range count {
		id, err := gen.Next()
		if err != nil {
			return err
		}

		o.Println(id)
	}

	return nil
}

// newSeedSource returns microsecond timestamps, bumped so that IDs generated
// within the same microsecond still get distinct seeds.
func newSeedSource() func() uint64 {
	var last uint64

	return func() uint64 {
		seed := uint64(time.Now().UnixMicro())
		if seed <= last {
			seed = last + 1
		}

		last = seed

		return seed
	}
}
