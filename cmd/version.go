// =============================================================================
// Country Normalizer - Version Information
// =============================================================================
//
// OUTPUT (countrynorm --version):
//   countrynorm
//   Version:    1.0.0
//   Build Date: 2026-01-01
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
)

// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/country-normalizer/cmd.Version=1.0.0' -X 'github.com/ginjaninja78/country-normalizer/cmd.BuildDate=2026-01-01'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

func versionTemplate() string {
	return fmt.Sprintf("{{.Name}}\nVersion:    {{.Version}}\nBuild Date: %s\nGo Version: %s\n",
		BuildDate, runtime.Version())
}
