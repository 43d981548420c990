// Package config loads wordcache CLI configuration from JSONC files, the
// environment and flag overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".wordcache.json"

// EnvPrefix prefixes every environment override, e.g. WORDCACHE_WORDS=4.
const EnvPrefix = "WORDCACHE_"

// Error variables for config loading.
var (
	ErrFileNotFound   = errors.New("config file not found")
	ErrFileRead       = errors.New("cannot read config file")
	ErrInvalid        = errors.New("invalid config")
	ErrCachePathEmpty = errors.New("cache_path cannot be empty")
)

// Config holds all configuration options.
type Config struct {
	// From config files and WORDCACHE_* variables (serialized)
	CachePath    string `json:"cache_path" env:"CACHE_PATH"`
	WordListPath string `json:"wordlist_path,omitempty" env:"WORDLIST_PATH"`
	Words        int    `json:"words" env:"WORDS"`
	Capacity     int    `json:"capacity" env:"CAPACITY"`
	MaxWordLen   int    `json:"max_word_len" env:"MAX_WORD_LEN"`
	KeepCase     bool   `json:"keep_case,omitempty" env:"KEEP_CASE"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd    string `json:"-"`
	CachePathAbs    string `json:"-"`
	WordListPathAbs string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project or explicit config if loaded, empty otherwise
	Env     bool   // Whether any WORDCACHE_* variable was set
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		CachePath:    "wordlist.cache",
		WordListPath: "wordlist.txt",
		Words:        wordcache.DefaultIDWords,
		Capacity:     256 * wordcache.DefaultIDWords,
		MaxWordLen:   wordcache.DefaultMaxWordLen,
	}
}

// Overrides are values from CLI flags. Zero values mean "not set".
type Overrides struct {
	CachePath    string
	WordListPath string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath string            // -c/--config flag value
	Overrides  Overrides         // flag values
	Env        map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/wordcache/config.json or ~/.config/wordcache/config.json)
// 3. Project config file (.wordcache.json, if it exists)
// 4. Explicit config file via ConfigPath (replaces 3, must exist)
// 5. WORDCACHE_* environment variables
// 6. CLI overrides.
//
// Relative paths are resolved against the working directory.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if globalPath := globalConfigPath(input.Env); globalPath != "" {
		globalCfg, keys, err := loadFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if keys != nil {
			cfg = merge(cfg, globalCfg, keys)
			cfg.Sources.Global = globalPath
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		projectPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	projectCfg, keys, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if keys != nil {
		cfg = merge(cfg, projectCfg, keys)
		cfg.Sources.Project = projectPath
	}

	cfg.Sources.Env, err = applyEnv(&cfg, input.Env)
	if err != nil {
		return Config{}, err
	}

	if input.Overrides.CachePath != "" {
		cfg.CachePath = input.Overrides.CachePath
	}

	if input.Overrides.WordListPath != "" {
		cfg.WordListPath = input.Overrides.WordListPath
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.CachePathAbs = absPath(workDir, cfg.CachePath)

	if cfg.WordListPath != "" {
		cfg.WordListPathAbs = absPath(workDir, cfg.WordListPath)
	}

	return cfg, nil
}

// Format returns cfg as indented JSON, the same shape the config files use.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/wordcache/config.json, falling
// back to ~/.config/wordcache/config.json. Empty if neither can be determined.
func globalConfigPath(environ map[string]string) string {
	if xdgConfig := environ["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "wordcache", "config.json")
	}

	if home := environ["HOME"]; home != "" {
		return filepath.Join(home, ".config", "wordcache", "config.json")
	}

	return ""
}

// loadFile loads a config file and reports which keys it sets. If mustExist
// is false, a missing file returns nil keys and no error.
func loadFile(path string, mustExist bool) (Config, map[string]bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if !mustExist && os.IsNotExist(err) {
			return Config{}, nil, nil
		}

		if os.IsNotExist(err) {
			return Config{}, nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}

		return Config{}, nil, fmt.Errorf("%w: %s: %w", ErrFileRead, path, err)
	}

	cfg, keys, err := parse(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	if keys["cache_path"] && cfg.CachePath == "" {
		return Config{}, nil, fmt.Errorf("%w %s: %w", ErrInvalid, path, ErrCachePathEmpty)
	}

	return cfg, keys, nil
}

// parse decodes JSONC. keys holds every top-level key present in data, so
// an explicit false or 0 can be told apart from an absent key.
func parse(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]json.RawMessage

	err = json.Unmarshal(standardized, &raw)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	keys := make(map[string]bool, len(raw))
	for k := range raw {
		keys[k] = true
	}

	return cfg, keys, nil
}

// applyEnv overlays WORDCACHE_* variables from env onto cfg.
func applyEnv(cfg *Config, environ map[string]string) (bool, error) {
	scoped := make(map[string]string)

	for k, v := range environ {
		if strings.HasPrefix(k, EnvPrefix) {
			scoped[k] = v
		}
	}

	if len(scoped) == 0 {
		return false, nil
	}

	err := env.ParseWithOptions(cfg, env.Options{
		Environment: scoped,
		Prefix:      EnvPrefix,
	})
	if err != nil {
		return false, fmt.Errorf("%w: environment: %w", ErrInvalid, err)
	}

	return true, nil
}

// merge copies every key set in overlay onto base, zero values included.
func merge(base, overlay Config, keys map[string]bool) Config {
	if keys["cache_path"] {
		base.CachePath = overlay.CachePath
	}

	if keys["wordlist_path"] {
		base.WordListPath = overlay.WordListPath
	}

	if keys["words"] {
		base.Words = overlay.Words
	}

	if keys["capacity"] {
		base.Capacity = overlay.Capacity
	}

	if keys["max_word_len"] {
		base.MaxWordLen = overlay.MaxWordLen
	}

	if keys["keep_case"] {
		base.KeepCase = overlay.KeepCase
	}

	return base
}

func validate(cfg Config) error {
	switch {
	case cfg.CachePath == "":
		return ErrCachePathEmpty
	case cfg.Words < 0:
		return fmt.Errorf("%w: words %d is negative", ErrInvalid, cfg.Words)
	case cfg.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d must be positive", ErrInvalid, cfg.Capacity)
	case cfg.MaxWordLen < 1 || cfg.MaxWordLen > wordcache.MaxPayloadLen:
		return fmt.Errorf("%w: max_word_len %d not in [1, %d]", ErrInvalid, cfg.MaxWordLen, wordcache.MaxPayloadLen)
	}

	return nil
}

func absPath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}
