package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one wordcache subcommand such as sample, build or add.
//
// Run owns flag parsing, help output and error reporting, so Exec only
// sees positional arguments and returns an error on failure.
type Command struct {
	// Flags holds the subcommand's own flags. Global flags (--cwd, --cache,
	// ...) are consumed by [Run] before the subcommand is looked up.
	Flags *flag.FlagSet

	// Usage starts with the subcommand name, e.g. "build [--src path]".
	Usage string

	// Short is shown next to Usage in the command list.
	Short string

	// Long replaces Short in "wordcache <cmd> --help" when set.
	Long string

	// Exec receives the context cancelled on SIGINT/SIGTERM.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the word users type to select the command.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine is the command's row in the top level usage.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-30s %s", c.Usage, c.Short)
}

// PrintHelp writes usage, description and flag defaults to stdout.
func (c *Command) PrintHelp(o *IO) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Usage: wordcache %s\n\n%s\n", c.Usage, c.description())

	if c.Flags != nil && c.Flags.HasFlags() {
		sb.WriteString("\nFlags:\n")
		sb.WriteString(c.Flags.FlagUsages())
	}

	o.Printf("%s", sb.String())
}

func (c *Command) description() string {
	if c.Long != "" {
		return c.Long
	}

	return c.Short
}

// Run parses args and calls Exec. It returns the process exit code: 0 on
// success or --help, 1 on a flag or Exec error.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	// Errors are printed below; keep pflag quiet.
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)

	switch {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o)
		return 0
	case err != nil:
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
