// Package logging wraps log/slog for the fixturegen commands.
//
// Diagnostics always go to stderr so stdout stays clean for generated
// artifacts. The level and format come from the --log-level and --log-format
// flags or the config file's log section.
package logging
