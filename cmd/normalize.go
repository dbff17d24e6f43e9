// =============================================================================
// Country Normalizer - Normalize Command
// =============================================================================
//
// This file implements what the root command does when it runs.
//
// PROCESSING PIPELINE:
//   1. Load settings (--config) and apply command-line overrides
//   2. Set up logging
//   3. Validate the options
//   4. Build the normalizer and run it against SOURCE
//   5. Print the summary report
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/normalizer"
)

// runNormalize is the main function that orchestrates a run.
func (a *app) runNormalize(cmd *cobra.Command, args []string) error {
	// =========================================================================
	// STEP 1: LOAD SETTINGS
	// =========================================================================

	settings, err := a.loadSettings(cmd)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: SET UP LOGGING
	// =========================================================================

	logLevel, logJSON, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = settings.LogLevel
	}
	if !cmd.Flags().Changed("log-json") {
		logJSON = settings.LogJSON
	}
	log, err := logger.SetupLogger(logLevel, logJSON, a.stderr)
	if err != nil {
		return &usageError{err: fmt.Errorf("invalid option --log-level: %w", err)}
	}
	ctx := logger.ContextWithLogger(cmd.Context(), log)

	// =========================================================================
	// STEP 3: VALIDATE OPTIONS
	// =========================================================================

	opts := config.Options{
		Format:   a.format,
		To:       a.to,
		Location: a.location,
	}
	if len(args) > 0 {
		opts.Source = args[0]
	}
	if err := opts.Validate(); err != nil {
		return &usageError{err: err}
	}

	// =========================================================================
	// STEP 4: RUN
	// =========================================================================

	n, err := normalizer.New(opts, settings, a.fs)
	if err != nil {
		return err
	}
	summary, runErr := n.Run(ctx)

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	a.printSummary(summary)
	if runErr != nil {
		return fmt.Errorf("normalization failed: %w", runErr)
	}
	return nil
}

// loadSettings reads --config when given and applies the flags that were
// set explicitly on top of it.
func (a *app) loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if a.cfgFile != "" {
		var err error
		if settings, err = config.LoadSettings(a.cfgFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		settings.Workers = a.workers
	}
	if flags.Changed("continue-on-error") {
		settings.ContinueOnError = a.keepOn
	}
	if flags.Changed("dry-run") {
		settings.DryRun = a.dryRun
	}
	if err := settings.Validate(); err != nil {
		return nil, &usageError{err: err}
	}
	return settings, nil
}

func (a *app) printSummary(s *normalizer.Summary) {
	out := a.stdout
	fmt.Fprintln(out, "=== Country Normalizer ===")
	for _, r := range s.Results {
		mark := "✓"
		if r.Changed == 0 {
			mark = "-"
		}
		name := r.Target
		if s.Format != "db" {
			name = filepath.Base(r.Target)
		}
		fmt.Fprintf(out, "  %s %s: %d changed, %d unresolved, %d values\n",
			mark, name, r.Changed, r.Unresolved, r.Values)
	}

	total := s.Totals()
	fmt.Fprintln(out, "\n=== Normalization Complete ===")
	fmt.Fprintf(out, "Targets:         %d\n", len(s.Results))
	fmt.Fprintf(out, "Written:         %d\n", s.Written())
	fmt.Fprintf(out, "Values:          %d\n", total.Values)
	fmt.Fprintf(out, "Changed:         %d\n", total.Changed)
	fmt.Fprintf(out, "Unresolved:      %d\n", total.Unresolved)
	if s.Format == "db" {
		fmt.Fprintf(out, "Updates:         %d\n", total.Updates)
		fmt.Fprintf(out, "Rows affected:   %d\n", total.RowsAffected)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", s.Duration)
	if s.DryRun {
		fmt.Fprintln(out, "Dry run: nothing was written.")
	}
}
