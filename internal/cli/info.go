package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/wordcache/pkg/wordcache"
)

var errUnknownFormat = errors.New("unknown format (want text, json or yaml)")

// InfoCmd returns the info command.
func InfoCmd(a *app) *Command {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.StringP("format", "f", "text", "Output format: text, json or yaml")

	return &Command{
		Flags: fs,
		Usage: "info [--format text|json|yaml]",
		Short: "Validate and describe the cache file",
		Long: `Validate the cache file header and scan every slot.

Slots whose length byte is larger than the record width are reported with a
warning and a non-zero exit code.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			format, _ := fs.GetString("format")
			return execInfo(o, a, format)
		},
	}
}

func execInfo(o *IO, a *app, format string) error {
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}

	info, err := wordcache.Inspect(a.fs, a.cfg.CachePathAbs)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", a.cfg.CachePath, err)
	}

	if info.Overlong > 0 {
		o.Warn(
			fmt.Sprintf("%d slots have a length byte larger than the record", info.Overlong),
			"rebuild the cache with 'wordcache build'",
		)
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding info: %w", err)
		}

		o.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("encoding info: %w", err)
		}

		o.Printf("%s", data)
	default:
		o.Println("path=" + info.Path)
		o.Printf("size=%d\n", info.Size)
		o.Printf("width=%d\n", info.Width)
		o.Printf("slots=%d\n", info.Slots)
		o.Printf("trailing=%d\n", info.Trailing)
		o.Printf("longest=%d\n", info.Longest)
		o.Printf("empty=%d\n", info.Empty)
		o.Printf("overlong=%d\n", info.Overlong)
	}

	return nil
}
