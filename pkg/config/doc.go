// Package config loads and validates the project configuration file. The
// file carries generation policy defaults, model filters, field policies,
// relation links, and emitter settings; command-line flags override file
// values field by field.
package config
