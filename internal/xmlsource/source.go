// =============================================================================
// Country Normalizer - Markup Adapter
// =============================================================================
//
// This adapter rewrites element text or attribute values of XML files in
// place.
//
// PIPELINE (per file):
//   1. Parse the file into a tree (comments, processing instructions and
//      whitespace are kept as tokens)
//   2. Select nodes with the path expression
//   3. Resolve each non-empty node value and write back resolved ones
//   4. Serialize the tree to a temp file and atomically replace the original
//
// =============================================================================

package xmlsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/country-normalizer/internal/batch"
	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/types"
	"github.com/ginjaninja78/country-normalizer/pkg/utils"
)

// Pattern selects the files of a directory.
const Pattern = "*.xml"

// Options configures a markup normalization target.
type Options struct {
	// Path selects the values to normalize, e.g. "//country" or
	// "//place/@code".
	Path string

	// To is the output format.
	To countries.Format

	// Batch controls how the files of a directory are processed.
	Batch batch.Policy
}

// Adapter normalizes values of XML files.
type Adapter struct {
	opts     Options
	expr     *Expression
	resolver types.Resolver
	files    *utils.FileManager
}

// New compiles the path expression and returns an adapter.
func New(opts Options, resolver types.Resolver, files *utils.FileManager) (*Adapter, error) {
	expr, err := ParsePath(opts.Path)
	if err != nil {
		return nil, err
	}
	if !opts.To.Valid() {
		return nil, config.Errorf("unknown output format %q", opts.To)
	}
	return &Adapter{opts: opts, expr: expr, resolver: resolver, files: files}, nil
}

// Normalize rewrites path, or every *.xml file directly inside it when path
// is a directory.
func (a *Adapter) Normalize(ctx context.Context, path string) ([]types.Result, error) {
	runner := &batch.Runner{
		Files:   a.files,
		Pattern: Pattern,
		Process: a.NormalizeFile,
		Policy:  a.opts.Batch,
	}
	return runner.Run(ctx, path)
}

// NormalizeFile rewrites a single file.
func (a *Adapter) NormalizeFile(ctx context.Context, path string) (types.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	res := types.Result{Target: path}

	data, err := a.files.ReadFile(path)
	if err != nil {
		return res, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	// A document written without self-closing tags keeps <a></a>.
	doc.WriteSettings.CanonicalEndTags = !bytes.Contains(data, []byte("/>"))
	if err := doc.ReadFromBytes(data); err != nil {
		return res, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	nodes := a.expr.Match(doc)
	log.Debug("Matched nodes", "file", path, "path", a.expr.String(), "count", len(nodes))

	for _, node := range nodes {
		value := node.Value()
		if strings.TrimSpace(value) == "" {
			continue
		}
		if out, changed := res.Normalize(a.resolver, value, a.opts.To); changed {
			node.SetValue(out)
			log.Debug("Rewrote value", "file", path, "node", node.Describe(), "from", value, "to", out)
		}
	}

	res.Written, err = a.files.ReplaceAtomic(path, func(w io.Writer) error {
		if res.Changed == 0 {
			return utils.ErrNoChange
		}
		if _, err := doc.WriteTo(w); err != nil {
			return fmt.Errorf("failed to serialize %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	return res, nil
}
