package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

// benchChunk is how many samples a worker draws between context checks.
const benchChunk = 1024

var errBenchArgs = errors.New("--iterations and --workers must be at least 1")

// BenchCmd returns the bench command.
func BenchCmd(a *app) *Command {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.IntP("words", "n", 0, "Words per sample (default from config)")
	fs.Uint64("seed", 1, "Seed of the first sample")
	fs.Int("iterations", 100_000, "Samples per worker")
	fs.Int("workers", 1, "Concurrent workers")

	return &Command{
		Flags: fs,
		Usage: "bench [--iterations N] [--workers N]",
		Short: "Measure sampling throughput",
		Long: `Repeatedly sample the cache file and report timing.

Every sample reopens the cache file, like an ID request does. Worker w uses
seeds starting at seed + w*iterations.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execBench(ctx, o, a, fs)
		},
	}
}

func execBench(ctx context.Context, o *IO, a *app, fs *flag.FlagSet) error {
	words, _ := fs.GetInt("words")
	if !fs.Changed("words") {
		words = a.cfg.Words
	}

	seed, _ := fs.GetUint64("seed")
	iterations, _ := fs.GetInt("iterations")
	workers, _ := fs.GetInt("workers")

	if iterations < 1 || workers < 1 {
		return errBenchArgs
	}

	sampler := wordcache.NewSampler(a.fs)
	path := a.cfg.CachePathAbs
	capacity := a.cfg.Capacity

	g, ctx := errgroup.WithContext(ctx)

	start := time.Now()

	for w := range workers {
		g.Go(func() error {
			next := seed + uint64(w)*uint64(iterations)

			for remaining := iterations; remaining > 0; {
				if err := ctx.Err(); err != nil {
					return err
				}

				n := min(remaining, benchChunk)

				_, err := sampler.SampleN(path, words, next, capacity, n)
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}

				next += uint64(n)
				remaining -= n
			}

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := iterations * workers

	a.log.Debug("bench done", "workers", workers, "iterations", iterations, "elapsed", elapsed)

	o.Printf("Total time: %.2fms\n", float64(elapsed.Microseconds())/1000)
	o.Printf("Samples: %d\n", total)
	o.Printf("Workers: %d\n", workers)
	o.Printf("Time per sample: %.4fms\n", elapsed.Seconds()*1000/float64(total))
	o.Printf("Samples/second: %.0f\n", float64(total)/elapsed.Seconds())

	return nil
}
