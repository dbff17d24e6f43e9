// =============================================================================
// Country Normalizer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The tool has a single
// command: the root command normalizes SOURCE and exits.
//
// COMMAND USAGE:
//   countrynorm --format FORMAT --to TO --location LOCATION [flags] SOURCE
//
// EXIT STATUS:
//   0  success (also --version)
//   1  the run failed
//   2  usage: --help, a missing or invalid option, bad arguments
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app holds the streams and flag values of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs

	// helped is set when the help text was printed.
	helped bool

	format   string
	to       string
	location string
	cfgFile  string
	workers  int
	dryRun   bool
	keepOn   bool
}

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "countrynorm --format FORMAT --to TO --location LOCATION SOURCE",
		Short: "Normalize country names in files and database columns",
		Long: `countrynorm rewrites country names found in CSV/TSV, XML and XLSX files or
in a database column into one canonical representation, in place.

Values are matched case-insensitively against ISO 3166-1 codes, names and
common aliases. Values that match no country are left untouched.

Formats (--format):
  csv    LOCATION is a column name; SOURCE is a .csv/.tsv file or a directory
  xml    LOCATION is a path expression such as //country or //place/@code
  xlsx   LOCATION is [Sheet!]column; SOURCE is a .xlsx file or a directory
  db     LOCATION is table.column; SOURCE is sqlite://file.db, file.db or postgres://...

Output formats (--to):
  ` + strings.Join(countries.FormatNames(), ", ") + `

Example Usage:
  countrynorm --format csv --to iso3 --location country data/pop.csv
  countrynorm --format xml --to iso2 --location '//item/@origin' exports/
  countrynorm --format db --to short_name --location customers.country sqlite://crm.db`,
		Version:       Version,
		Args:          sourceArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNormalize(cmd, args)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate(versionTemplate())

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		a.helped = true
		defaultHelp(cmd, args)
	})
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	// ==========================================================================
	// FLAGS
	// ==========================================================================

	flags := root.Flags()
	flags.StringVar(&a.format, "format", "",
		"Source format: "+strings.Join(config.SourceFormats(), ", "))
	flags.StringVar(&a.to, "to", "", "Output format: "+strings.Join(countries.FormatNames(), ", "))
	flags.StringVar(&a.location, "location", "", "Column, path expression or table.column to normalize")
	flags.StringVar(&a.cfgFile, "config", "", "Path to a YAML settings file")
	flags.String("log-level", "info", "Log level: debug, info, warn, error, disabled")
	flags.Bool("log-json", false, "Write logs as JSON lines")
	flags.IntVar(&a.workers, "workers", 1, "Files normalized concurrently when SOURCE is a directory")
	flags.BoolVar(&a.keepOn, "continue-on-error", false, "Keep going after a file fails")
	flags.BoolVar(&a.dryRun, "dry-run", false, "Resolve and report without writing anything")

	return root
}

func sourceArg(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return &usageError{err: fmt.Errorf("expected one SOURCE argument, got %d", len(args))}
	}
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run runs the CLI with args and returns the exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	return run(args, &app{stdout: stdout, stderr: stderr})
}

func run(args []string, a *app) int {
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	switch {
	case err == nil && a.helped:
		return ExitUsage
	case err == nil:
		return ExitOK
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(a.stderr, "Run '%s --help' for usage.\n", root.Name())
		return ExitUsage
	}
	return ExitFailure
}
