// Package strategy resolves summarized fields into concrete generation
// actions: a single provider strategy, or a union of candidate strategies
// with a selection policy.
package strategy

import (
	"errors"
	"fmt"

	"github.com/fixturegen/fixturegen/pkg/provider"
	"github.com/fixturegen/fixturegen/pkg/schema"
)

// Selection policies.
const (
	PolicyFirst    = "first"
	PolicyRandom   = "random"
	PolicyWeighted = "weighted"
)

// EnumProviderName identifies the static enum pseudo-provider; the generator
// resolves enum draws itself rather than through the registry.
const EnumProviderName = "enum.static"

// ErrNoProvider is returned when no provider is registered for a field's
// type. It is a configuration error and is never retried.
var ErrNoProvider = errors.New("no provider registered")

// Strategy binds a field to a concrete generation action.
type Strategy struct {
	FieldName    string
	Summary      schema.FieldSummary
	Provider     *provider.Ref
	ProviderName string

	// PNone is the probability of producing no value for the field.
	PNone float64

	// EnumValues and EnumPolicy are set when the field is enum-like.
	EnumValues []any
	EnumPolicy string
}

// UnionStrategy holds per-branch strategies for a field with more than one
// candidate type, plus the branch selection policy.
type UnionStrategy struct {
	FieldName string
	Choices   []*Strategy
	Policy    string
	PNone     float64
}

// Result is either a *Strategy or a *UnionStrategy.
type Result interface {
	strategyResult()
}

func (*Strategy) strategyResult()      {}
func (*UnionStrategy) strategyResult() {}

// Builder turns field summaries into strategies against a provider registry.
type Builder struct {
	Registry      *provider.Registry
	EnumPolicy    string
	UnionPolicy   string
	DefaultPNone  float64
	OptionalPNone float64
}

// NewBuilder creates a builder with "first" policies and zero none
// probabilities.
func NewBuilder(registry *provider.Registry) *Builder {
	return &Builder{
		Registry:    registry,
		EnumPolicy:  PolicyFirst,
		UnionPolicy: PolicyFirst,
	}
}

// BuildModelStrategies resolves every field of a model. Fields resolve in
// declaration order so configuration errors name the first offending field.
func (b *Builder) BuildModelStrategies(model *schema.ModelDef) (map[string]Result, error) {
	strategies := make(map[string]Result, len(model.Fields))
	for i := range model.Fields {
		field := &model.Fields[i]
		result, err := b.BuildFieldStrategy(field.Name, field.Annotation, schema.Summarize(field))
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", model.QualifiedName(), err)
		}
		strategies[field.Name] = result
	}
	return strategies, nil
}

// BuildFieldStrategy resolves one field: unions of two or more non-null
// branches become a UnionStrategy with one Strategy per branch; everything
// else resolves to a single provider Strategy.
func (b *Builder) BuildFieldStrategy(fieldName string, ann *schema.Annotation, summary schema.FieldSummary) (Result, error) {
	stripped, optional := stripOptional(ann)
	if stripped != nil && stripped.IsUnion() {
		return b.buildUnion(fieldName, stripped, optional || summary.IsOptional)
	}
	return b.buildSingle(fieldName, summary)
}

func (b *Builder) buildUnion(fieldName string, ann *schema.Annotation, optional bool) (*UnionStrategy, error) {
	choices := make([]*Strategy, 0, len(ann.Branches))
	for i, branch := range ann.Branches {
		branchSummary := schema.SummarizeAnnotation(branch)
		s, err := b.buildSingle(fieldName, branchSummary)
		if err != nil {
			return nil, fmt.Errorf("union branch %d: %w", i, err)
		}
		choices = append(choices, s)
	}
	return &UnionStrategy{
		FieldName: fieldName,
		Choices:   choices,
		Policy:    b.UnionPolicy,
		PNone:     b.pNone(optional),
	}, nil
}

func (b *Builder) buildSingle(fieldName string, summary schema.FieldSummary) (*Strategy, error) {
	pNone := b.pNone(summary.IsOptional)

	if len(summary.EnumValues) > 0 {
		return &Strategy{
			FieldName:    fieldName,
			Summary:      summary,
			ProviderName: EnumProviderName,
			PNone:        pNone,
			EnumValues:   summary.EnumValues,
			EnumPolicy:   b.EnumPolicy,
		}, nil
	}

	// Nested models and collections are driven by the generator itself;
	// they carry no provider.
	switch summary.Type {
	case schema.KindModel, schema.KindList, schema.KindSet, schema.KindDict, schema.KindAny:
		return &Strategy{FieldName: fieldName, Summary: summary, PNone: pNone}, nil
	}

	ref := b.Registry.Get(string(summary.Type), summary.Format)
	if ref == nil && summary.Type == schema.KindString {
		// String-like fields with an unknown format fall back to the plain
		// string provider.
		ref = b.Registry.Get(string(schema.KindString), "")
	}
	if ref == nil {
		return nil, fmt.Errorf("%w for field %q with type %q (format %q)",
			ErrNoProvider, fieldName, summary.Type, summary.Format)
	}

	return &Strategy{
		FieldName:    fieldName,
		Summary:      summary,
		Provider:     ref,
		ProviderName: ref.Name,
		PNone:        pNone,
	}, nil
}

func (b *Builder) pNone(optional bool) float64 {
	if optional {
		return b.OptionalPNone
	}
	return b.DefaultPNone
}

// stripOptional unwraps optional markers, reporting whether any level was
// optional. Single-branch unions collapse to their branch.
func stripOptional(a *schema.Annotation) (*schema.Annotation, bool) {
	if a == nil {
		return nil, false
	}
	optional := a.Optional
	if len(a.Branches) == 1 {
		inner, innerOpt := stripOptional(a.Branches[0])
		return inner, optional || innerOpt
	}
	return a, optional
}
