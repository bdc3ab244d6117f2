// Package emit renders generated instances into their output artifacts:
// JSON sample files (single document, JSONL, or sharded), JSON Schema
// documents self-checked against a draft 2020-12 compiler, and Go fixture
// source files. All file writes are atomic.
package emit
