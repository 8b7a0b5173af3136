// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uscompile/uscompile/internal/compiler"
	"github.com/uscompile/uscompile/internal/imports"
)

const (
	// LogLevelDebug logs every scanned directory.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs one line per compiled artifact.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs diagnostics only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of log output.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// SourceDir is the root of the source tree.
		SourceDir string `json:"source_dir" mapstructure:"source_dir"`
		// OutputDir is the root of the compiled tree.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// ImportDir holds importable fragments.
		ImportDir string `json:"import_dir" mapstructure:"import_dir"`
		// ManifestFile is the manifest name at the output root.
		ManifestFile string `json:"manifest_file" mapstructure:"manifest_file"`
		// Version configures version derivation.
		Version VersionConfig `json:"version" mapstructure:"version"`
		// Imports configures fragment loading.
		Imports ImportsConfig `json:"imports" mapstructure:"imports"`
		// Watch configures build --watch.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// Log configures log output.
		Log LogConfig `json:"log" mapstructure:"log"`

		// Source is the config file that was loaded, empty for defaults only.
		Source string `json:"-" mapstructure:"-"`
	}

	// VersionConfig configures the git version fallback.
	VersionConfig struct {
		Git     bool   `json:"git" mapstructure:"git"`
		RepoDir string `json:"repo_dir" mapstructure:"repo_dir"`
	}

	// ImportsConfig configures fragment loading.
	ImportsConfig struct {
		CacheSize int `json:"cache_size" mapstructure:"cache_size"`
	}

	// WatchConfig configures the file watcher.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
	}

	// LogConfig configures log output.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error {
	return ErrInvalidLogLevel
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns the sentinel error and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks constraints the schema cannot see, such as values that
// arrived through the environment.
func (c *Config) Validate() error {
	var errs []error
	dirs := []struct{ name, value string }{
		{"source_dir", c.SourceDir},
		{"output_dir", c.OutputDir},
		{"import_dir", c.ImportDir},
	}
	for _, d := range dirs {
		if strings.TrimSpace(d.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", d.name))
		}
	}
	if c.ManifestFile == "" || strings.ContainsAny(c.ManifestFile, `/\`) {
		errs = append(errs, fmt.Errorf("manifest_file %q must be a plain file name", c.ManifestFile))
	}
	if c.Imports.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("imports.cache_size must be at least 1, got %d", c.Imports.CacheSize))
	}
	if c.Watch.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce))
	}
	if ok, levelErrs := c.Log.Level.IsValid(); !ok {
		errs = append(errs, levelErrs...)
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		SourceDir:    "src",
		OutputDir:    "dist",
		ImportDir:    "snippet",
		ManifestFile: compiler.DefaultManifestName,
		Version: VersionConfig{
			Git:     true,
			RepoDir: "", // detect from the source files
		},
		Imports: ImportsConfig{
			CacheSize: imports.DefaultCacheSize,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			Ignore:   []string{},
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}
