// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Settings come, in increasing precedence, from built-in defaults, a CUE
// config file and USCOMPILE_* environment variables (a .env file in the base
// directory is loaded first). The config file is the one passed explicitly,
// else uscompile.cue in the base directory, else config.cue in the user
// config directory (~/.config/uscompile on Linux, ~/Library/Application
// Support/uscompile on macOS, %APPDATA%\uscompile on Windows).
//
// Config files are validated against an embedded CUE schema
// (config_schema.cue) to ensure type safety and provide clear error messages.
package config
