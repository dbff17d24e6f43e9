// =============================================================================
// Country Normalizer - Configuration Module
// =============================================================================
//
// This module is responsible for loading the optional settings file and for
// validating the options of a normalization run.
//
// CONFIGURATION SOURCES:
//   1. Settings file (--config settings.yaml): run-wide tuning
//   2. Command-line options (--format, --to, --location, SOURCE)
//
// Command-line flags given explicitly take precedence over the settings file.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SETTINGS STRUCTURE
// =============================================================================

// Settings holds the run-wide configuration loaded from a YAML file.
type Settings struct {
	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error", "disabled"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error disabled"`

	// LogJSON switches the log output to JSON lines.
	// Default: false
	LogJSON bool `yaml:"log_json"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Workers is the maximum number of files normalized concurrently when
	// SOURCE is a directory. Set to 1 for sequential processing.
	// Default: 1
	Workers int `yaml:"workers" validate:"min=1,max=64"`

	// ContinueOnError keeps processing the remaining files of a directory
	// after one fails. All failures are reported at the end.
	// Default: false
	ContinueOnError bool `yaml:"continue_on_error"`

	// DryRun resolves and reports without modifying any source.
	// Default: false
	DryRun bool `yaml:"dry_run"`

	// CSV contains settings for delimited-text files.
	CSV CSVSettings `yaml:"csv"`

	// DB contains settings for database targets.
	DB DBSettings `yaml:"db"`
}

// CSVSettings contains settings for delimited-text files.
type CSVSettings struct {
	// Delimiter forces the field delimiter instead of detecting it from the
	// header line.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "\t" or "tab"
	// Default: "" (detect)
	Delimiter string `yaml:"delimiter"`
}

// DBSettings contains settings for database targets.
type DBSettings struct {
	// BusyTimeout is how long SQLite waits on a locked database before
	// failing a statement.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// DefaultSettings returns the settings used when no settings file is given.
func DefaultSettings() *Settings {
	s := &Settings{}
	applySettingsDefaults(s)
	return s
}

// LoadSettings loads the settings from a YAML file.
//
// PARAMETERS:
//   - path: The path to the settings file.
//
// RETURNS:
//   - A pointer to the Settings struct, with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func LoadSettings(path string) (*Settings, error) {
	// Read the settings file.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseSettings(data)
}

// ParseSettings parses YAML settings, applies defaults and validates them.
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, Errorf("failed to parse config file: %w", err)
	}

	applySettingsDefaults(&settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// applySettingsDefaults sets default values for any unset settings.
func applySettingsDefaults(s *Settings) {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	if s.Workers == 0 {
		s.Workers = 1
	}
	if s.DB.BusyTimeout == 0 {
		s.DB.BusyTimeout = 5 * time.Second
	}
}

// Validate checks the settings after defaults were applied.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Errorf("invalid setting %s: %v", fe.Field(), fe.Value())
		}
		return Errorf("invalid settings: %w", err)
	}
	if s.DB.BusyTimeout < 0 {
		return Errorf("invalid setting db.busy_timeout: %s", s.DB.BusyTimeout)
	}
	if _, err := s.CSV.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// DELIMITER PARSING
// =============================================================================

var delimiterAliases = map[string]rune{
	"tab":       '\t',
	`\t`:        '\t',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
}

// DelimiterRune returns the forced delimiter, or 0 when the delimiter should
// be detected.
func (c CSVSettings) DelimiterRune() (rune, error) {
	if c.Delimiter == "" {
		return 0, nil
	}
	if r, ok := delimiterAliases[strings.ToLower(c.Delimiter)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, Errorf("invalid setting csv.delimiter: %q is not a single character", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, Errorf("invalid setting csv.delimiter: %q cannot be used as a delimiter", c.Delimiter)
	}
	return r, nil
}
