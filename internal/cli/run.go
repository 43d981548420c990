// Package cli implements the wordcache command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wordcache/internal/config"
	"github.com/calvinalkan/wordcache/pkg/fs"
)

// Run is the main entry point. Returns exit code.
//
// args includes the program name. A value received on sigCh cancels the
// context passed to the running command.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("wordcache", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	flagHelp := globals.BoolP("help", "h", false, "Show help")
	flagCwd := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globals.StringP("config", "c", "", "Use specified config `file`")
	flagCache := globals.String("cache", "", "Override the cache file `path`")
	flagWordList := globals.String("wordlist", "", "Override the word list `path`")
	flagVerbose := globals.BoolP("verbose", "v", false, "Log diagnostics to stderr")

	if len(args) > 0 {
		args = args[1:]
	}

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, nil)

		return 1
	}

	if globals.Changed("cache") && *flagCache == "" {
		fprintln(errOut, "error:", config.ErrCachePathEmpty)
		fprintln(errOut)
		printUsage(errOut, globals, nil)

		return 1
	}

	logger := slog.New(slog.DiscardHandler)
	if *flagVerbose {
		logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	a := &app{
		cfg: &config.Config{},
		fs:  fs.NewReal(),
		log: logger,
		in:  in,
	}

	commands := []*Command{
		SampleCmd(a),
		IDCmd(a),
		BuildCmd(a),
		InfoCmd(a),
		BenchCmd(a),
		AddCmd(a),
		PrintConfigCmd(a),
	}

	rest := globals.Args()
	if *flagHelp || len(rest) == 0 {
		printUsage(out, globals, commands)
		return 0
	}

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c
			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		fprintln(errOut)
		printUsage(errOut, globals, commands)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDir:    *flagCwd,
		ConfigPath: *flagConfig,
		Overrides:  config.Overrides{CachePath: *flagCache, WordListPath: *flagWordList},
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	*a.cfg = cfg

	logger.Debug("config loaded",
		"cwd", cfg.EffectiveCwd,
		"cache", cfg.CachePathAbs,
		"wordlist", cfg.WordListPathAbs,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, rest[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

// app carries what every command needs. cfg is filled in after the
// command has been resolved.
type app struct {
	cfg *config.Config
	fs  fs.FS
	log *slog.Logger
	in  io.Reader
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func absPath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, `wordcache - word cache sampler and ID generator

Usage: wordcache [global flags] <command> [args]

Global flags:`)

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	if len(commands) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'wordcache <command> --help' for command flags.")
}
