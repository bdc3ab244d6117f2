package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

const componentPrefix = "#/components/schemas/"

// ImportOpenAPI converts the component schemas of an OpenAPI 3 document into
// model definitions. Object schemas become models; non-object components are
// skipped with a warning. Property order is alphabetical so imported models
// generate deterministically regardless of document map ordering.
func ImportOpenAPI(path, module string) ([]*schema.ModelDef, []string, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading OpenAPI document %s: %w", path, err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no component schemas", ErrNoModels, path)
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var models []*schema.ModelDef
	var warnings []string
	for _, name := range names {
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			warnings = append(warnings, fmt.Sprintf("component %q has no schema value", name))
			continue
		}
		if schemaType(ref.Value) != "object" {
			warnings = append(warnings, fmt.Sprintf("component %q is not an object schema; skipped", name))
			continue
		}
		model, modelWarnings := importObject(module, name, ref.Value)
		warnings = append(warnings, modelWarnings...)
		if err := model.Validate(); err != nil {
			return nil, nil, fmt.Errorf("imported component %q: %w", name, err)
		}
		models = append(models, model)
	}
	if len(models) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no importable object components", ErrNoModels, path)
	}
	return models, warnings, nil
}

func importObject(module, name string, src *openapi3.Schema) (*schema.ModelDef, []string) {
	model := &schema.ModelDef{Module: module, Name: name, Kind: schema.ModelStruct}
	if src.AdditionalProperties.Schema != nil {
		model.Kind = schema.ModelMapping
	}

	required := make(map[string]bool, len(src.Required))
	for _, field := range src.Required {
		required[field] = true
	}

	props := make([]string, 0, len(src.Properties))
	for prop := range src.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	var warnings []string
	for _, prop := range props {
		propRef := src.Properties[prop]
		ann, constraints, propWarnings := importAnnotation(name+"."+prop, propRef)
		warnings = append(warnings, propWarnings...)
		if !required[prop] {
			ann.Optional = true
		}
		model.Fields = append(model.Fields, schema.FieldDef{
			Name:        prop,
			Annotation:  ann,
			Constraints: constraints,
		})
	}
	return model, warnings
}

// importAnnotation maps one property schema to an annotation plus native
// constraints. Unmappable shapes degrade to "any" with a warning rather than
// failing the import.
func importAnnotation(where string, ref *openapi3.SchemaRef) (*schema.Annotation, schema.Constraints, []string) {
	if ref == nil {
		return &schema.Annotation{Type: schema.KindAny}, schema.Constraints{}, nil
	}
	if ref.Ref != "" {
		return &schema.Annotation{Ref: strings.TrimPrefix(ref.Ref, componentPrefix)}, schema.Constraints{}, nil
	}
	src := ref.Value
	if src == nil {
		return &schema.Annotation{Type: schema.KindAny}, schema.Constraints{},
			[]string{fmt.Sprintf("%s: empty schema; treated as any", where)}
	}

	constraints := importConstraints(src)

	if len(src.Enum) > 0 {
		return &schema.Annotation{Enum: append([]any(nil), src.Enum...), Format: src.Format}, constraints, nil
	}

	if refs := compositionRefs(src); len(refs) >= 2 {
		branches := make([]*schema.Annotation, 0, len(refs))
		var warnings []string
		for i, branch := range refs {
			branchAnn, _, branchWarnings := importAnnotation(fmt.Sprintf("%s[%d]", where, i), branch)
			warnings = append(warnings, branchWarnings...)
			branches = append(branches, branchAnn)
		}
		return &schema.Annotation{Branches: branches, Optional: src.Nullable}, constraints, warnings
	} else if len(refs) == 1 {
		ann, branchConstraints, warnings := importAnnotation(where, refs[0])
		if src.Nullable {
			ann.Optional = true
		}
		if branchConstraints.Empty() {
			return ann, constraints, warnings
		}
		return ann, branchConstraints, warnings
	}

	var warnings []string
	ann := &schema.Annotation{Format: src.Format, Optional: src.Nullable}

	switch schemaType(src) {
	case "string":
		ann.Type = schema.KindString
		if src.Format == "byte" || src.Format == "binary" {
			ann.Type = schema.KindBytes
			ann.Format = ""
		}
	case "integer":
		ann.Type = schema.KindInt
		ann.Format = ""
	case "number":
		ann.Type = schema.KindFloat
		ann.Format = ""
	case "boolean":
		ann.Type = schema.KindBool
		ann.Format = ""
	case "array":
		ann.Type = schema.KindList
		if src.Items != nil {
			item, _, itemWarnings := importAnnotation(where+"[]", src.Items)
			warnings = append(warnings, itemWarnings...)
			ann.Item = item
		}
		if src.UniqueItems {
			ann.Type = schema.KindSet
		}
	case "object":
		// Inline objects have no model identity; import as open mappings.
		ann.Type = schema.KindDict
		if src.AdditionalProperties.Schema != nil {
			value, _, valueWarnings := importAnnotation(where+".*", src.AdditionalProperties.Schema)
			warnings = append(warnings, valueWarnings...)
			ann.Item = value
		}
		if len(src.Properties) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: inline object properties flattened to open mapping", where))
		}
	default:
		ann.Type = schema.KindAny
		warnings = append(warnings, fmt.Sprintf("%s: untyped schema; treated as any", where))
	}

	return ann, constraints, warnings
}

func importConstraints(src *openapi3.Schema) schema.Constraints {
	var c schema.Constraints
	if src.Min != nil {
		v := *src.Min
		if src.ExclusiveMin {
			c.Gt = &v
		} else {
			c.Ge = &v
		}
	}
	if src.Max != nil {
		v := *src.Max
		if src.ExclusiveMax {
			c.Lt = &v
		} else {
			c.Le = &v
		}
	}
	if src.MinLength > 0 {
		v := int(src.MinLength)
		c.MinLength = &v
	}
	if src.MaxLength != nil {
		v := int(*src.MaxLength)
		c.MaxLength = &v
	}
	if src.Pattern != "" {
		c.Pattern = src.Pattern
	}
	if src.MinItems > 0 {
		v := int(src.MinItems)
		c.MinItems = &v
	}
	if src.MaxItems != nil {
		v := int(*src.MaxItems)
		c.MaxItems = &v
	}
	return c
}

// compositionRefs returns oneOf/anyOf variants; anyOf is treated like oneOf
// for generation purposes.
func compositionRefs(src *openapi3.Schema) openapi3.SchemaRefs {
	if len(src.OneOf) > 0 {
		return src.OneOf
	}
	return src.AnyOf
}

func schemaType(src *openapi3.Schema) string {
	if src.Type == nil {
		return ""
	}
	types := src.Type.Slice()
	if len(types) == 0 {
		return ""
	}
	return types[0]
}
