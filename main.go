// =============================================================================
// Country Normalizer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the countrynorm CLI application. It
// delegates to the cmd package, which parses the command line, runs the
// normalization and exits with the matching status.
//
// ARCHITECTURE:
//   - cmd/           : CLI definition (Cobra)
//   - internal/      : Country table, resolver, source adapters, run driver
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/country-normalizer/cmd"
)

func main() {
	cmd.Execute()
}
