package wordcache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/calvinalkan/wordcache/pkg/fs"
)

// DefaultIDWords is the number of words in an ID when [IDOptions.Words] is zero.
const DefaultIDWords = 3

// IDOptions configures an [IDGenerator].
type IDOptions struct {
	// CachePath is the cache file to sample from. Required.
	CachePath string

	// WordListPath, if set, is used to build CachePath when it is missing.
	WordListPath string

	// Words per ID. Zero means [DefaultIDWords].
	Words int

	// Capacity bounds the ID length in bytes. Zero means one maximum
	// width record per word.
	Capacity int

	// Seed returns the seed for each ID. Nil means the current time in
	// microseconds.
	Seed func() uint64

	// Build configures the rebuild. Its Logger defaults to Logger.
	Build BuildOptions

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// IDGenerator produces human readable IDs such as "MangoRiverQuiet" by
// concatenating sampled words.
type IDGenerator struct {
	opts    IDOptions
	sampler *Sampler
	builder *Builder
	log     *slog.Logger
}

// NewIDGenerator returns an IDGenerator reading through fsys.
//
// Returns [ErrInvalidInput] if CachePath is empty or Words/Capacity is negative.
func NewIDGenerator(fsys fs.FS, opts IDOptions) (*IDGenerator, error) {
	if opts.CachePath == "" {
		return nil, fmt.Errorf("%w: cache path is empty", ErrInvalidInput)
	}

	if opts.Words < 0 || opts.Capacity < 0 {
		return nil, fmt.Errorf("%w: words %d, capacity %d", ErrInvalidInput, opts.Words, opts.Capacity)
	}

	if opts.Words == 0 {
		opts.Words = DefaultIDWords
	}

	if opts.Capacity == 0 {
		opts.Capacity = opts.Words * MaxRecordWidth
	}

	if opts.Seed == nil {
		opts.Seed = timeSeed
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.Build.Logger == nil {
		opts.Build.Logger = logger
	}

	return &IDGenerator{
		opts:    opts,
		sampler: NewSampler(fsys),
		builder: NewBuilder(fsys, opts.Build),
		log:     logger,
	}, nil
}

// Next returns a new ID.
//
// If the cache file is missing and a word list is configured, the cache is
// built once and sampling retried once. Any other error is returned as is.
func (g *IDGenerator) Next() (string, error) {
	seed := g.opts.Seed()

	id, err := g.sampler.Sample(g.opts.CachePath, g.opts.Words, seed, g.opts.Capacity)
	if err == nil {
		return string(id), nil
	}

	if !errors.Is(err, ErrNotFound) || g.opts.WordListPath == "" {
		return "", err
	}

	g.log.Info("word cache missing, building",
		"cache", g.opts.CachePath,
		"wordlist", g.opts.WordListPath,
	)

	_, buildErr := g.builder.Build(g.opts.WordListPath, g.opts.CachePath)
	if buildErr != nil {
		return "", fmt.Errorf("rebuilding missing cache: %w", buildErr)
	}

	id, err = g.sampler.Sample(g.opts.CachePath, g.opts.Words, seed, g.opts.Capacity)
	if err != nil {
		return "", err
	}

	return string(id), nil
}

func timeSeed() uint64 {
	return uint64(time.Now().UnixMicro())
}
