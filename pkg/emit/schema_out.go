package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// BuildModelSchema renders one model as a standalone JSON Schema document.
// Models referenced by the target are inlined under $defs so the document
// compiles on its own; index resolves qualified and bare model names.
func BuildModelSchema(model *schema.ModelDef, index map[string]*schema.ModelDef) map[string]any {
	doc := modelSchema(model)
	doc["$schema"] = draft
	doc["title"] = model.QualifiedName()

	defs := make(map[string]any)
	collectRefs(model, index, map[string]bool{}, defs)
	if len(defs) > 0 {
		doc["$defs"] = defs
	}
	return doc
}

func collectRefs(model *schema.ModelDef, index map[string]*schema.ModelDef, seen map[string]bool, defs map[string]any) {
	for i := range model.Fields {
		summary := schema.Summarize(&model.Fields[i])
		if summary.Ref == "" {
			continue
		}
		ref := index[summary.Ref]
		if ref == nil || seen[ref.QualifiedName()] {
			continue
		}
		seen[ref.QualifiedName()] = true
		defs[ref.Name] = modelSchema(ref)
		collectRefs(ref, index, seen, defs)
	}
}

// BuildBundle renders a combined document with one $defs entry per model.
func BuildBundle(models []*schema.ModelDef) map[string]any {
	defs := make(map[string]any, len(models))
	for _, model := range models {
		defs[model.Name] = modelSchema(model)
	}
	return map[string]any{
		"$schema": draft,
		"$defs":   defs,
	}
}

func modelSchema(model *schema.ModelDef) map[string]any {
	properties := make(map[string]any, len(model.Fields))
	var required []string
	for i := range model.Fields {
		field := &model.Fields[i]
		properties[field.Name] = annotationSchema(field.Annotation, field.Constraints)
		summary := schema.Summarize(field)
		if !summary.IsOptional {
			required = append(required, field.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	if model.Kind != schema.ModelMapping {
		doc["additionalProperties"] = false
	}
	return doc
}

func annotationSchema(a *schema.Annotation, c schema.Constraints) map[string]any {
	inner := bareAnnotationSchema(a, c)
	summary := schema.SummarizeAnnotation(a)
	if summary.IsOptional {
		return map[string]any{"anyOf": []any{inner, map[string]any{"type": "null"}}}
	}
	return inner
}

func bareAnnotationSchema(a *schema.Annotation, c schema.Constraints) map[string]any {
	if a == nil {
		return map[string]any{}
	}

	if len(a.Enum) > 0 {
		return map[string]any{"enum": append([]any(nil), a.Enum...)}
	}
	if a.Ref != "" {
		name := a.Ref
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
		return map[string]any{"$ref": "#/$defs/" + name}
	}
	if a.IsUnion() {
		branches := make([]any, 0, len(a.Branches))
		for _, branch := range a.Branches {
			branches = append(branches, bareAnnotationSchema(branch, schema.Constraints{}))
		}
		return map[string]any{"oneOf": branches}
	}
	if len(a.Branches) == 1 {
		return bareAnnotationSchema(a.Branches[0], c)
	}

	doc := map[string]any{}
	switch a.Type {
	case schema.KindInt:
		doc["type"] = "integer"
		numericBounds(doc, c)
	case schema.KindFloat, schema.KindDecimal:
		doc["type"] = "number"
		numericBounds(doc, c)
	case schema.KindBool:
		doc["type"] = "boolean"
	case schema.KindString:
		doc["type"] = "string"
		if a.Format != "" {
			doc["format"] = a.Format
		}
		if c.MinLength != nil {
			doc["minLength"] = *c.MinLength
		}
		if c.MaxLength != nil {
			doc["maxLength"] = *c.MaxLength
		}
		if c.Pattern != "" {
			doc["pattern"] = c.Pattern
		}
	case schema.KindBytes:
		doc["type"] = "string"
		doc["contentEncoding"] = "base64"
	case schema.KindList, schema.KindSet:
		doc["type"] = "array"
		if a.Item != nil {
			doc["items"] = bareAnnotationSchema(a.Item, schema.Constraints{})
		}
		if a.Type == schema.KindSet {
			doc["uniqueItems"] = true
		}
		if c.MinItems != nil {
			doc["minItems"] = *c.MinItems
		}
		if c.MaxItems != nil {
			doc["maxItems"] = *c.MaxItems
		}
	case schema.KindDict:
		doc["type"] = "object"
		if a.Item != nil {
			doc["additionalProperties"] = bareAnnotationSchema(a.Item, schema.Constraints{})
		}
	}
	return doc
}

func numericBounds(doc map[string]any, c schema.Constraints) {
	if c.Ge != nil {
		doc["minimum"] = *c.Ge
	}
	if c.Gt != nil {
		doc["exclusiveMinimum"] = *c.Gt
	}
	if c.Le != nil {
		doc["maximum"] = *c.Le
	}
	if c.Lt != nil {
		doc["exclusiveMaximum"] = *c.Lt
	}
}

// EncodeSchema renders a schema document as indented JSON and self-checks it
// by compiling with a draft 2020-12 compiler; an uncompilable document never
// reaches disk.
func EncodeSchema(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	if _, err := compileSchema(data); err != nil {
		return nil, fmt.Errorf("emitted schema does not compile: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidateInstance checks one instance against a schema document. Used by
// tests and the doctor path to prove emitted samples match emitted schemas.
func ValidateInstance(doc map[string]any, instance any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	compiled, err := compileSchema(data)
	if err != nil {
		return err
	}

	// Round-trip so engine-internal number types compare as JSON numbers.
	raw, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	var plain any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&plain); err != nil {
		return fmt.Errorf("reparse instance: %w", err)
	}
	return compiled.Validate(plain)
}

func compileSchema(data []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
