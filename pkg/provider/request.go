package provider

import (
	mathrand "math/rand/v2"
	"time"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// Func is a value-generator function. It receives the field's summary, a
// seeded random source, and format-specific context, and returns a concrete
// value. Providers never return partial values with an error.
type Func func(req *Request) (any, error)

// Request carries everything a provider needs for one draw.
type Request struct {
	// Summary is the normalized descriptor of the field being generated.
	Summary schema.FieldSummary

	// Rand is the seeded pseudo-random stream. Owned exclusively by one
	// generator instance; providers must draw from it and nothing else so
	// output stays deterministic.
	Rand *mathrand.Rand

	// TimeAnchor is the reference instant for temporal fields.
	TimeAnchor time.Time

	// Locale is a BCP 47 tag selecting locale-sensitive word tables.
	Locale string

	// Numbers, Identifiers, and Paths are the numeric, identifier, and
	// filesystem-path sub-policies of the active generation config.
	Numbers     NumberPolicy
	Identifiers IdentifierPolicy
	Paths       PathPolicy
}

// NumberPolicy bounds the default numeric ranges used when a field declares
// no explicit constraints.
type NumberPolicy struct {
	IntMin   int64   `json:"intMin" yaml:"intMin"`
	IntMax   int64   `json:"intMax" yaml:"intMax"`
	FloatMin float64 `json:"floatMin" yaml:"floatMin"`
	FloatMax float64 `json:"floatMax" yaml:"floatMax"`
}

// DefaultNumberPolicy mirrors the default symmetric range around zero.
func DefaultNumberPolicy() NumberPolicy {
	return NumberPolicy{IntMin: -10, IntMax: 10, FloatMin: -10, FloatMax: 10}
}

// IdentifierPolicy selects how identifier-format strings are produced.
type IdentifierPolicy struct {
	// Style is "uuid" (default) or "short" for 16-char hex ids.
	Style string `json:"style" yaml:"style"`

	// Prefix is prepended to short-style identifiers.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// PathPolicy selects the flavor of generated filesystem paths.
type PathPolicy struct {
	// Style is "unix" (default) or "windows".
	Style string `json:"style" yaml:"style"`

	// Depth is the number of directory segments; defaults to 2.
	Depth int `json:"depth" yaml:"depth"`
}

// ArrayPolicy bounds collection sizes when a field declares no explicit
// minItems/maxItems constraints.
type ArrayPolicy struct {
	MinItems int `json:"minItems" yaml:"minItems"`
	MaxItems int `json:"maxItems" yaml:"maxItems"`
}

// DefaultArrayPolicy keeps unconstrained collections small.
func DefaultArrayPolicy() ArrayPolicy {
	return ArrayPolicy{MinItems: 1, MaxItems: 3}
}
