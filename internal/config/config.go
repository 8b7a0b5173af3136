// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/uscompile/uscompile/internal/issue"
	"github.com/uscompile/uscompile/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "uscompile"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the project config file looked up in the base directory.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. USCOMPILE_OUTPUT_DIR.
	EnvPrefix = "USCOMPILE"
	// EnvFile is the dotenv file loaded from the base directory.
	EnvFile = ".env"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the uscompile configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserConfigPath returns the path of the user config file.
func UserConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state other than the process environment (.env values).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}

	if err := loadDotEnv(filepath.Join(baseDir, EnvFile)); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigPath(opts, baseDir)
	if err != nil {
		return nil, err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, loadError(resolvedPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loadError(resolvedPath, fmt.Errorf("failed to parse config: %w", err))
	}
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check USCOMPILE_* environment variables and the config file values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// resolveConfigPath picks the config file to load: the explicit path, else
// the project file in baseDir, else the user config file. An empty result
// means built-in defaults only.
func resolveConfigPath(opts LoadOptions, baseDir string) (string, error) {
	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'uscompile config init' to create a config file").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if local := filepath.Join(baseDir, LocalConfigFile); fileExists(local) {
		return local, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if user := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(user) {
		return user, nil
	}

	return "", nil
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("Use 'uscompile config dump' to see the default configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// setDefaults registers every key with viper. AutomaticEnv only sees keys
// viper knows about, so each one needs a default.
func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("source_dir", defaults.SourceDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("import_dir", defaults.ImportDir)
	v.SetDefault("manifest_file", defaults.ManifestFile)
	v.SetDefault("version.git", defaults.Version.Git)
	v.SetDefault("version.repo_dir", defaults.Version.RepoDir)
	v.SetDefault("imports.cache_size", defaults.Imports.CacheSize)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce.String())
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("log.level", string(defaults.Log.Level))
}

// loadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(path).
			WithSuggestion("Use KEY=value lines, e.g. USCOMPILE_OUTPUT_DIR=build").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The document decodes to map[string]any (not a struct) so that viper keeps
// layering defaults and environment overrides on top of it.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(true))
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// uscompile configuration file\n")
	sb.WriteString("// Any field may be omitted; USCOMPILE_* environment variables override it.\n\n")

	fmt.Fprintf(&sb, "source_dir:    %q\n", cfg.SourceDir)
	fmt.Fprintf(&sb, "output_dir:    %q\n", cfg.OutputDir)
	fmt.Fprintf(&sb, "import_dir:    %q\n", cfg.ImportDir)
	fmt.Fprintf(&sb, "manifest_file: %q\n", cfg.ManifestFile)

	sb.WriteString("\nversion: {\n")
	fmt.Fprintf(&sb, "\tgit:      %v\n", cfg.Version.Git)
	fmt.Fprintf(&sb, "\trepo_dir: %q\n", cfg.Version.RepoDir)
	sb.WriteString("}\n")

	sb.WriteString("\nimports: {\n")
	fmt.Fprintf(&sb, "\tcache_size: %d\n", cfg.Imports.CacheSize)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	sb.WriteString("\tignore: [")
	for i, pattern := range cfg.Watch.Ignore {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", pattern)
	}
	sb.WriteString("]\n")
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}
