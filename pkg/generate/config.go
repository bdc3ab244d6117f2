package generate

import (
	"time"

	"github.com/fixturegen/fixturegen/pkg/provider"
	"github.com/fixturegen/fixturegen/pkg/schema"
	"github.com/fixturegen/fixturegen/pkg/strategy"
)

// Default retry budget against user validators.
const DefaultValidatorMaxRetries = 10

// Default recursion depth cap for nested models.
const DefaultMaxDepth = 8

// FieldPolicy overrides generation behavior for fields whose qualified path
// matches the policy's pattern.
type FieldPolicy struct {
	// PNone replaces the strategy's none probability when set.
	PNone *float64 `json:"pNone,omitempty" yaml:"pNone,omitempty"`

	// Value pins the field to a literal; Pin distinguishes an intentional
	// nil pin from an unset value.
	Value any  `json:"value,omitempty" yaml:"value,omitempty"`
	Pin   bool `json:"pin,omitempty" yaml:"pin,omitempty"`

	// Provider redirects the field to a different registered provider,
	// addressed by display name.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Skip omits the field from generated instances entirely.
	Skip bool `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// GenerationConfig is the complete policy bundle for one generation run.
// It is constructed once per invocation, is immutable for its duration, and
// is owned exclusively by the generator that consumes it.
type GenerationConfig struct {
	// Seed is the normalized seed for the run's pseudo-random stream.
	Seed int64

	// EnumPolicy and UnionPolicy select enum members and union branches:
	// "first" is deterministic regardless of seed; "random" and "weighted"
	// draw from the seeded stream.
	EnumPolicy  string
	UnionPolicy string

	// DefaultPNone applies to non-optional strategies, OptionalPNone to
	// optional fields.
	DefaultPNone  float64
	OptionalPNone float64

	// TimeAnchor is the reference instant for temporal providers.
	TimeAnchor time.Time

	// FieldPolicies maps doublestar patterns over qualified field paths
	// (e.g. "*.email", "shop.Order.total") to policy overrides. The most
	// specific matching pattern wins.
	FieldPolicies map[string]FieldPolicy

	// Locale selects locale-sensitive word tables.
	Locale string

	// Sub-policies for arrays, identifiers, numbers, and paths.
	Arrays      provider.ArrayPolicy
	Identifiers provider.IdentifierPolicy
	Numbers     provider.NumberPolicy
	Paths       provider.PathPolicy

	// RespectValidators enables the validator retry loop; with it disabled
	// candidates are returned unconditionally.
	RespectValidators   bool
	ValidatorMaxRetries int

	// Relations maps "Model.field" to "OtherModel.field"; matching fields
	// resolve by lookup against same-run instances instead of drawing fresh
	// randomness.
	Relations map[string]string

	// RelationModels resolves qualified (and bare) model names to loaded
	// definitions for relation targets and nested refs. Read-only during
	// generation.
	RelationModels map[string]*schema.ModelDef

	// MaxDepth caps nested-model recursion; zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultConfig returns a config with "first" policies, zero none
// probabilities, and the default sub-policies.
func DefaultConfig() GenerationConfig {
	return GenerationConfig{
		EnumPolicy:          strategy.PolicyFirst,
		UnionPolicy:         strategy.PolicyFirst,
		Numbers:             provider.DefaultNumberPolicy(),
		Arrays:              provider.DefaultArrayPolicy(),
		RespectValidators:   true,
		ValidatorMaxRetries: DefaultValidatorMaxRetries,
		MaxDepth:            DefaultMaxDepth,
	}
}
