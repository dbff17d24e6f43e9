// =============================================================================
// Country Normalizer - Batch Runner
// =============================================================================
//
// The batch runner gives every file adapter the same "file or directory"
// behavior. A directory is expanded with the adapter's pattern (direct
// children only, sorted); a file is processed on its own.
//
// CONCURRENCY:
//   Files are processed one at a time unless Workers > 1. Each file's
//   read-modify-write is self-contained, so files can be normalized
//   concurrently without changing any per-file result. Results are always
//   reported in file order.
//
// ERROR POLICY:
//   By default the run stops at the first failing file. Files already
//   rewritten stay rewritten. With ContinueOnError every file is attempted
//   and the failures are returned together.
//
// =============================================================================

package batch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/types"
	"github.com/ginjaninja78/country-normalizer/pkg/utils"
)

// ProcessFunc normalizes a single file.
type ProcessFunc func(ctx context.Context, path string) (types.Result, error)

// Runner applies Process to a file or to every matching file of a directory.
type Runner struct {
	// Files is used to tell files from directories and to expand directories.
	Files *utils.FileManager

	// Pattern selects the files of a directory, e.g. "*.{csv,tsv}".
	Pattern string

	// Process normalizes one file.
	Process ProcessFunc

	Policy
}

// Policy controls how the files of a directory are scheduled.
type Policy struct {
	// Workers is the maximum number of files processed at once.
	// Values below 2 mean sequential processing.
	Workers int

	// ContinueOnError keeps going after a file fails.
	ContinueOnError bool
}

// Run processes path. It returns the results of the files that succeeded,
// in file order, and the error of the first failing file (or all of them,
// joined, with ContinueOnError).
func (r *Runner) Run(ctx context.Context, path string) ([]types.Result, error) {
	log := logger.FromContext(ctx)

	files, err := r.expand(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("No files matched", "dir", path, "pattern", r.Pattern)
		return nil, nil
	}
	log.Debug("Discovered files", "count", len(files), "pattern", r.Pattern)

	if r.Workers > 1 && len(files) > 1 {
		return r.runParallel(ctx, files)
	}
	return r.runSequential(ctx, files)
}

func (r *Runner) expand(path string) ([]string, error) {
	dir, err := r.Files.IsDir(path)
	if err != nil {
		return nil, err
	}
	if !dir {
		return []string{path}, nil
	}
	return r.Files.Discover(path, r.Pattern)
}

func (r *Runner) runSequential(ctx context.Context, files []string) ([]types.Result, error) {
	results := make([]types.Result, 0, len(files))
	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, errors.Join(append(errs, err)...)
		}
		res, err := r.processOne(ctx, file)
		if err != nil {
			if !r.ContinueOnError {
				return results, err
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runParallel(ctx context.Context, files []string) ([]types.Result, error) {
	var (
		group *errgroup.Group
		gctx  = ctx
	)
	if r.ContinueOnError {
		group = &errgroup.Group{}
	} else {
		group, gctx = errgroup.WithContext(ctx)
	}
	group.SetLimit(r.Workers)

	results := make([]types.Result, len(files))
	done := make([]bool, len(files))
	errs := make([]error, len(files))
	for i, file := range files {
		group.Go(func() error {
			// Files not yet started are skipped once another file failed.
			if gctx.Err() != nil {
				return nil
			}
			res, err := r.processOne(gctx, file)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i], done[i] = res, true
			return nil
		})
	}
	firstErr := group.Wait()

	out := make([]types.Result, 0, len(files))
	for i := range files {
		if done[i] {
			out = append(out, results[i])
		}
	}
	if r.ContinueOnError {
		return out, errors.Join(errs...)
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return out, firstErr
}

func (r *Runner) processOne(ctx context.Context, file string) (types.Result, error) {
	log := logger.FromContext(ctx).With("file", file)
	log.Info("Processing file")

	start := time.Now()
	res, err := r.Process(ctx, file)
	if err != nil {
		log.Error("File failed", "error", err)
		return types.Result{}, err
	}
	if res.Target == "" {
		res.Target = file
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	log.Info("Done",
		"values", res.Values,
		"changed", res.Changed,
		"unresolved", res.Unresolved,
		"written", res.Written,
	)
	return res, nil
}
