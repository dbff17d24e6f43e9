// =============================================================================
// Country Normalizer - Normalizer Module
// =============================================================================
//
// This module ties a run together. It selects the adapter for the requested
// source format, builds it from the validated options and settings, runs it
// against SOURCE and collects the results into a summary.
//
// RUN PIPELINE:
//   1. Validate the command-line options
//   2. Load the country table and build the resolver
//   3. Build the adapter (csv, xml, xlsx or db)
//   4. Normalize SOURCE
//   5. Report a summary (per-target results, resolver statistics)
//
// A failing run still returns the summary of what was done before the
// failure, so the caller can report partial progress.
//
// =============================================================================

package normalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/ginjaninja78/country-normalizer/internal/batch"
	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
	"github.com/ginjaninja78/country-normalizer/internal/csvsource"
	"github.com/ginjaninja78/country-normalizer/internal/dbsource"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/resolver"
	"github.com/ginjaninja78/country-normalizer/internal/types"
	"github.com/ginjaninja78/country-normalizer/internal/xlsxsource"
	"github.com/ginjaninja78/country-normalizer/internal/xmlsource"
	"github.com/ginjaninja78/country-normalizer/pkg/utils"
)

// =============================================================================
// SUMMARY STRUCTURE
// =============================================================================

// Summary represents the outcome of a run.
type Summary struct {
	// RunID identifies the run in log output.
	RunID uuid.UUID

	// Format is the source format (csv, xml, xlsx or db).
	Format string

	// To is the output format.
	To countries.Format

	// Source is the file, directory or connection string that was processed.
	Source string

	// DryRun reports whether writes were suppressed.
	DryRun bool

	// Results holds one entry per processed target, in processing order.
	Results []types.Result

	// Stats counts resolver hits and misses over the whole run.
	Stats resolver.Stats

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Totals adds up the per-target results.
func (s *Summary) Totals() types.Result {
	var total types.Result
	for _, r := range s.Results {
		total.Values += r.Values
		total.Changed += r.Changed
		total.Unresolved += r.Unresolved
		total.Updates += r.Updates
		total.RowsAffected += r.RowsAffected
		if r.Written {
			total.Written = true
		}
	}
	total.Duration = s.Duration
	return total
}

// Written counts the targets that were modified.
func (s *Summary) Written() int {
	n := 0
	for _, r := range s.Results {
		if r.Written {
			n++
		}
	}
	return n
}

// =============================================================================
// NORMALIZER STRUCTURE
// =============================================================================

// source is what every adapter provides once wrapped: normalize a location
// and report one result per target.
type source interface {
	Normalize(ctx context.Context, location string) ([]types.Result, error)
}

// dbSource adapts the single-result relational adapter to source.
type dbSource struct {
	*dbsource.Adapter
}

func (d dbSource) Normalize(ctx context.Context, dsn string) ([]types.Result, error) {
	res, err := d.Adapter.Normalize(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return []types.Result{res}, nil
}

// Normalizer runs one normalization.
type Normalizer struct {
	opts     config.Options
	settings *config.Settings
	resolver *resolver.Resolver
	source   source
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New validates opts and builds the adapter for opts.Format.
//
// PARAMETERS:
//   - opts: The command-line options.
//   - settings: The run settings. Nil means defaults.
//   - fs: The filesystem file adapters work on. Nil means the OS filesystem.
//
// RETURNS:
//   - A Normalizer ready to Run.
//   - A configuration error if the options or settings are invalid.
func New(opts config.Options, settings *config.Settings, fs afero.Fs) (*Normalizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}

	r, err := resolver.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load country table: %w", err)
	}

	n := &Normalizer{opts: opts, settings: settings, resolver: r}
	if n.source, err = n.newSource(fs); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Normalizer) newSource(fs afero.Fs) (source, error) {
	to := n.opts.Target()
	files := utils.NewFileManager(fs)
	files.DryRun = n.settings.DryRun
	policy := batch.Policy{
		Workers:         n.settings.Workers,
		ContinueOnError: n.settings.ContinueOnError,
	}

	switch n.opts.Format {
	case config.SourceCSV:
		delim, err := n.settings.CSV.DelimiterRune()
		if err != nil {
			return nil, err
		}
		return csvsource.New(csvsource.Options{
			Column:    n.opts.Location,
			To:        to,
			Delimiter: delim,
			Batch:     policy,
		}, n.resolver, files)
	case config.SourceXML:
		return xmlsource.New(xmlsource.Options{
			Path:  n.opts.Location,
			To:    to,
			Batch: policy,
		}, n.resolver, files)
	case config.SourceXLSX:
		return xlsxsource.New(xlsxsource.Options{
			Location: n.opts.Location,
			To:       to,
			Batch:    policy,
		}, n.resolver, files)
	case config.SourceDB:
		a, err := dbsource.New(dbsource.Options{
			Column:      n.opts.Location,
			To:          to,
			BusyTimeout: n.settings.DB.BusyTimeout,
			DryRun:      n.settings.DryRun,
		}, n.resolver)
		if err != nil {
			return nil, err
		}
		return dbSource{a}, nil
	default:
		return nil, config.Errorf("unsupported --format %q", n.opts.Format)
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run normalizes SOURCE. The returned summary is never nil, even on error.
func (n *Normalizer) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:  uuid.New(),
		Format: n.opts.Format,
		To:     n.opts.Target(),
		Source: n.opts.Source,
		DryRun: n.settings.DryRun,
	}

	log := logger.FromContext(ctx).With("run", summary.RunID.String())
	ctx = logger.ContextWithLogger(ctx, log)
	log.Info("Starting normalization",
		"format", n.opts.Format,
		"to", string(summary.To),
		"location", n.opts.Location,
		"dry_run", summary.DryRun,
	)

	results, err := n.source.Normalize(ctx, n.opts.Source)
	summary.Results = results
	summary.Stats = n.resolver.Stats()
	summary.Duration = time.Since(start)
	if err != nil {
		return summary, err
	}

	totals := summary.Totals()
	log.Info("Normalization complete",
		"targets", len(results),
		"changed", totals.Changed,
		"unresolved", totals.Unresolved,
		"duration", summary.Duration,
	)
	return summary, nil
}
