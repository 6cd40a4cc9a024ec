package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := rootCmd(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		var exit exitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// exitError makes the process exit non-zero after the command has already
// reported the problem itself.
type exitError struct{ msg string }

func (e exitError) Error() string { return e.msg }

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexref",
		Short: "Brazilian federal legal citation resolver",
		Long: `Lexref parses, normalizes, formats and validates citations to Brazilian
federal legislation.

It understands:
  - Full and short citations ("Art. 1º, Lei nº 13.709, de 14 de agosto de 2018")
  - Popular names ("Art. 5º, LGPD", "Art. 5º, CF/88")
  - Canonical identifiers ("lei-13709-2018, art. 1")
  - Paragraphs, incisos and alineas

Citations are checked against a document store, either a local library
directory or PostgreSQL.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("store", "", "Document store driver (library, postgres)")
	flags.String("library", "", "Library directory path")
	flags.String("dsn", "", "PostgreSQL connection string")
	flags.StringP("format", "f", formatText, "Output format (text, json)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(parseCmd(a))
	cmd.AddCommand(formatCmd(a))
	cmd.AddCommand(resolveCmd(a))
	cmd.AddCommand(validateCmd(a))
	cmd.AddCommand(searchCmd(a))
	cmd.AddCommand(seedCmd(a))
	cmd.AddCommand(aliasesCmd(a))
	cmd.AddCommand(libraryCmd(a))
	cmd.AddCommand(serveCmd(a))

	return cmd
}
