package schema

import (
	"fmt"
	"strings"
)

// Kind is the normalized type tag for a field annotation.
type Kind string

// Supported type tags.
const (
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindBool    Kind = "bool"
	KindString  Kind = "string"
	KindDecimal Kind = "decimal"
	KindBytes   Kind = "bytes"
	KindList    Kind = "list"
	KindSet     Kind = "set"
	KindDict    Kind = "dict"
	KindModel   Kind = "model"
	KindAny     Kind = "any"
)

// Constraints carries the native constraint metadata declared on a field.
// Numeric bounds use pointers so "unset" is distinguishable from zero.
type Constraints struct {
	Ge *float64 `json:"ge,omitempty" yaml:"ge,omitempty"`
	Gt *float64 `json:"gt,omitempty" yaml:"gt,omitempty"`
	Le *float64 `json:"le,omitempty" yaml:"le,omitempty"`
	Lt *float64 `json:"lt,omitempty" yaml:"lt,omitempty"`

	MinLength *int `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	// Pattern is an anchored-or-not regular expression the value must match.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// MinItems/MaxItems bound collection sizes.
	MinItems *int `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems *int `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`

	// DecimalPlaces and MaxDigits apply to decimal fields only.
	DecimalPlaces *int `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty"`
	MaxDigits     *int `json:"maxDigits,omitempty" yaml:"maxDigits,omitempty"`
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.Ge == nil && c.Gt == nil && c.Le == nil && c.Lt == nil &&
		c.MinLength == nil && c.MaxLength == nil && c.Pattern == "" &&
		c.MinItems == nil && c.MaxItems == nil &&
		c.DecimalPlaces == nil && c.MaxDigits == nil
}

// Annotation is the declared type expression of a field. It is a small closed
// tree: optional wrappers, union branches, collection element types, enum
// literal sets, and references to other models by qualified name.
type Annotation struct {
	// Type is the type tag. Empty with a non-empty Ref means a model reference.
	Type Kind `json:"type,omitempty" yaml:"type,omitempty"`

	// Format is a sub-selector within Type (e.g. "email", "uuid", "date-time").
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Optional marks the annotation as nullable.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Item is the element annotation for list/set collections, and the value
	// annotation for dict collections (dict keys are always strings).
	Item *Annotation `json:"item,omitempty" yaml:"item,omitempty"`

	// Branches holds the candidate annotations of a union type.
	Branches []*Annotation `json:"branches,omitempty" yaml:"branches,omitempty"`

	// Enum is the ordered literal candidate set, when the field is enum-like.
	Enum []any `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Ref names another model by qualified name for nested-model fields.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// IsUnion reports whether the annotation has two or more non-null branches.
func (a *Annotation) IsUnion() bool {
	if a == nil {
		return false
	}
	return len(a.Branches) >= 2
}

// IsCollection reports whether the annotation is a list, set, or dict.
func (a *Annotation) IsCollection() bool {
	if a == nil {
		return false
	}
	switch a.Type {
	case KindList, KindSet, KindDict:
		return true
	}
	return false
}

// FieldDef declares one field of a model: its name, annotation, and native
// constraint metadata. Field order within a model is significant; the
// generator consumes pseudo-random draws in declaration order.
type FieldDef struct {
	Name        string      `json:"name" yaml:"name"`
	Annotation  *Annotation `json:"annotation" yaml:"annotation"`
	Constraints Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Relation names a cross-model link in "Model.field" form. When set, the
	// generator resolves the value from a previously generated instance
	// instead of drawing fresh randomness.
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
}

// ValidatorDef declares a cross-field validation rule evaluated against a
// candidate instance. Rule is an expression over the instance's fields that
// must evaluate to true.
type ValidatorDef struct {
	Name string `json:"name" yaml:"name"`
	Rule string `json:"rule" yaml:"rule"`
}

// ModelKind is the closed variant of model flavors the engine understands.
type ModelKind string

// Model flavors.
const (
	// ModelStruct is an ordinary record with a fixed field list.
	ModelStruct ModelKind = "struct"
	// ModelMapping is an open record; declared fields are generated and
	// additional keys are permitted but never synthesized.
	ModelMapping ModelKind = "mapping"
)

// ModelDef is a loaded structured-type definition.
type ModelDef struct {
	// Module is the logical namespace of the model (source document stem).
	Module string `json:"module" yaml:"module"`

	// Name is the model's declared name within its module.
	Name string `json:"name" yaml:"name"`

	Kind   ModelKind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Fields []FieldDef     `json:"fields" yaml:"fields"`
	Rules  []ValidatorDef `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// QualifiedName returns the stable "module.Name" identifier used as the
// cache key for relation and freeze-seed resolution.
func (m *ModelDef) QualifiedName() string {
	if m.Module == "" {
		return m.Name
	}
	return m.Module + "." + m.Name
}

// Field returns the named field definition, or nil.
func (m *ModelDef) Field(name string) *FieldDef {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// Validate checks structural invariants of a model definition.
func (m *ModelDef) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model has no name")
	}
	if m.Kind == "" {
		m.Kind = ModelStruct
	}
	seen := make(map[string]bool, len(m.Fields))
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("model %s: field %d has no name", m.QualifiedName(), i)
		}
		if seen[f.Name] {
			return fmt.Errorf("model %s: duplicate field %q", m.QualifiedName(), f.Name)
		}
		seen[f.Name] = true
		if f.Annotation == nil {
			return fmt.Errorf("model %s: field %q has no annotation", m.QualifiedName(), f.Name)
		}
		if err := validateAnnotation(f.Annotation); err != nil {
			return fmt.Errorf("model %s: field %q: %w", m.QualifiedName(), f.Name, err)
		}
		if f.Relation != "" && !strings.Contains(f.Relation, ".") {
			return fmt.Errorf("model %s: field %q: relation %q must be in Model.field form",
				m.QualifiedName(), f.Name, f.Relation)
		}
	}
	return nil
}

func validateAnnotation(a *Annotation) error {
	if a.Type == "" && a.Ref == "" && len(a.Branches) == 0 && len(a.Enum) == 0 {
		return fmt.Errorf("annotation declares no type, ref, branches, or enum")
	}
	if len(a.Branches) == 1 {
		return fmt.Errorf("union annotation needs at least two branches")
	}
	for i, b := range a.Branches {
		if err := validateAnnotation(b); err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
	}
	if a.Item != nil {
		if err := validateAnnotation(a.Item); err != nil {
			return fmt.Errorf("item: %w", err)
		}
	}
	return nil
}
