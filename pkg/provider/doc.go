// Package provider implements the pluggable mapping from (type, format)
// pairs to value-generator functions, plus the built-in provider set for
// numbers, strings, formatted strings, temporal values, and identifiers.
//
// Registries are instance-scoped: each generation run owns its own Registry
// so runs stay isolated and testable in parallel.
package provider
