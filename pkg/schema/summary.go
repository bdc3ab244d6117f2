package schema

// FieldSummary is the normalized, type-erased description of one field's
// shape and constraints. It is an immutable value built once per field per
// generation pass.
type FieldSummary struct {
	// Type is the innermost real type tag after unwrapping optional markers.
	Type Kind

	// Constraints is the native constraint metadata for the field.
	Constraints Constraints

	// Format is a sub-selector within Type, e.g. "email" for strings.
	Format string

	// ItemType is the element type tag for collections, empty otherwise.
	ItemType Kind

	// Item is the full element annotation for collections, when present.
	Item *Annotation

	// EnumValues is the ordered literal candidate set, or nil.
	EnumValues []any

	// Ref is the qualified name of the nested model, for model fields.
	Ref string

	// IsOptional marks the field as nullable.
	IsOptional bool
}

// Summarize normalizes a field definition into a FieldSummary. Optional and
// union wrappers are unwrapped to find the innermost real type; enum-like
// annotations record their ordered value list; collections recurse one level
// to compute the element type tag. Opaque annotations summarize to KindAny
// rather than failing — the strategy layer surfaces the gap.
func Summarize(field *FieldDef) FieldSummary {
	s := SummarizeAnnotation(field.Annotation)
	s.Constraints = field.Constraints
	return s
}

// SummarizeAnnotation builds a FieldSummary from a bare annotation, without
// field-level constraint metadata. Used for union branches and collection
// elements where constraints do not propagate.
func SummarizeAnnotation(a *Annotation) FieldSummary {
	inner, optional := stripOptional(a)
	if inner == nil {
		return FieldSummary{Type: KindAny, IsOptional: optional}
	}

	s := FieldSummary{IsOptional: optional}

	if len(inner.Enum) > 0 {
		s.EnumValues = inner.Enum
		s.Type = enumKind(inner)
		s.Format = inner.Format
		return s
	}

	if inner.Ref != "" {
		s.Type = KindModel
		s.Ref = inner.Ref
		return s
	}

	if inner.IsUnion() {
		// A union has no single innermost type; the strategy builder expands
		// the branches itself. Tag it by the first branch for display.
		first := SummarizeAnnotation(inner.Branches[0])
		s.Type = first.Type
		s.Format = first.Format
		return s
	}

	switch inner.Type {
	case KindInt, KindFloat, KindBool, KindString, KindDecimal, KindBytes:
		s.Type = inner.Type
		s.Format = inner.Format
	case KindList, KindSet, KindDict:
		s.Type = inner.Type
		s.Item = inner.Item
		if inner.Item != nil {
			item := SummarizeAnnotation(inner.Item)
			s.ItemType = item.Type
			if item.Type == KindModel {
				s.Ref = item.Ref
			}
		} else {
			s.ItemType = KindAny
		}
	default:
		s.Type = KindAny
	}
	return s
}

// stripOptional unwraps optional markers and single-branch nullable unions,
// reporting whether the annotation was optional at any level.
func stripOptional(a *Annotation) (*Annotation, bool) {
	if a == nil {
		return nil, false
	}
	optional := a.Optional

	// A union whose branches collapse to one non-null candidate is an
	// optional wrapper, not a real union.
	if len(a.Branches) == 1 {
		inner, innerOpt := stripOptional(a.Branches[0])
		return inner, optional || innerOpt
	}
	return a, optional
}

// enumKind infers the type tag for an enum annotation from its declared type
// or, failing that, from the first literal value.
func enumKind(a *Annotation) Kind {
	if a.Type != "" {
		return a.Type
	}
	if len(a.Enum) == 0 {
		return KindAny
	}
	switch a.Enum[0].(type) {
	case int, int32, int64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case string:
		return KindString
	default:
		return KindAny
	}
}
