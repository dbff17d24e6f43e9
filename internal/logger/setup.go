package logger

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SetupLogger installs the default logger from the command-line settings and
// returns it. A nil out means stderr.
func SetupLogger(logLevel string, logJSON bool, out io.Writer) (Logger, error) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	Init(&Config{
		Level:      level,
		Output:     out,
		JSON:       logJSON,
		TimeFormat: "15:04:05",
	})
	return GetDefault(), nil
}

func GetLoggerConfig(cmd *cobra.Command) (string, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "", false, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return "", false, fmt.Errorf("failed to get log-json flag: %w", err)
	}

	return logLevel, logJSON, nil
}
