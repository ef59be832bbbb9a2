// Package startup handles application initialization, configuration
// loading, and structured startup/shutdown logging.
//
// Configuration is resolved from environment variables with sensible
// defaults. [LoadConfig] prints the banner, logs the resolved
// configuration, validates the data and cache directories, and returns a
// [Config] that the rest of the application is wired from.
//
// The package also owns the operator-facing lifecycle log sections:
// catalog initialization, the external toolchain check, route listing,
// server-started and shutdown progress. Keeping them here keeps main
// readable and the log format consistent.
package startup
