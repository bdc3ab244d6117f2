// Package cli implements the fixturegen command tree: gen json, gen schema,
// gen fixtures, list, doctor, and version. Commands log to stderr and write
// artifacts to stdout or files.
package cli
