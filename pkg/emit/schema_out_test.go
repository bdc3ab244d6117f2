package emit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func customerModel() *schema.ModelDef {
	return &schema.ModelDef{
		Module: "shop",
		Name:   "Customer",
		Fields: []schema.FieldDef{
			{Name: "id", Annotation: &schema.Annotation{Type: schema.KindString, Format: "uuid"}},
			{Name: "age", Annotation: &schema.Annotation{Type: schema.KindInt},
				Constraints: schema.Constraints{Ge: fptr(0), Le: fptr(120)}},
			{Name: "nickname", Annotation: &schema.Annotation{Type: schema.KindString, Optional: true}},
			{Name: "tags", Annotation: &schema.Annotation{Type: schema.KindList, Item: &schema.Annotation{Type: schema.KindString}},
				Constraints: schema.Constraints{MinItems: iptr(1), MaxItems: iptr(5)}},
		},
	}
}

func TestBuildModelSchema_Shape(t *testing.T) {
	doc := BuildModelSchema(customerModel(), nil)

	assert.Equal(t, "shop.Customer", doc["title"])
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []string{"id", "age", "tags"}, doc["required"], "optional fields stay out of required")

	props := doc["properties"].(map[string]any)
	age := props["age"].(map[string]any)
	assert.Equal(t, "integer", age["type"])
	assert.Equal(t, 0.0, age["minimum"])
	assert.Equal(t, 120.0, age["maximum"])

	nickname := props["nickname"].(map[string]any)
	require.Contains(t, nickname, "anyOf", "optional fields allow null")

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, 1, tags["minItems"])
}

func TestBuildModelSchema_InlinesReferencedModels(t *testing.T) {
	customer := customerModel()
	order := &schema.ModelDef{
		Module: "shop",
		Name:   "Order",
		Fields: []schema.FieldDef{
			{Name: "customer", Annotation: &schema.Annotation{Ref: "shop.Customer"}},
		},
	}
	index := map[string]*schema.ModelDef{"shop.Customer": customer}

	doc := BuildModelSchema(order, index)

	defs := doc["$defs"].(map[string]any)
	require.Contains(t, defs, "Customer")

	props := doc["properties"].(map[string]any)
	ref := props["customer"].(map[string]any)
	assert.Equal(t, "#/$defs/Customer", ref["$ref"])
}

func TestBuildModelSchema_SelfReference(t *testing.T) {
	node := &schema.ModelDef{
		Module: "g",
		Name:   "Node",
		Fields: []schema.FieldDef{
			{Name: "next", Annotation: &schema.Annotation{Ref: "g.Node", Optional: true}},
		},
	}
	index := map[string]*schema.ModelDef{"g.Node": node}

	doc := BuildModelSchema(node, index)
	defs := doc["$defs"].(map[string]any)
	require.Contains(t, defs, "Node", "a cycle back to the root still needs a definition")

	_, err := EncodeSchema(doc)
	require.NoError(t, err)
}

func TestEncodeSchema_Compiles(t *testing.T) {
	data, err := EncodeSchema(BuildModelSchema(customerModel(), nil))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestBuildBundle(t *testing.T) {
	doc := BuildBundle([]*schema.ModelDef{customerModel()})
	defs := doc["$defs"].(map[string]any)
	require.Contains(t, defs, "Customer")

	_, err := EncodeSchema(doc)
	require.NoError(t, err)
}

func TestValidateInstance(t *testing.T) {
	doc := BuildModelSchema(customerModel(), nil)

	good := map[string]any{
		"id":       "c0ffee00-0000-4000-8000-000000000001",
		"age":      int64(30),
		"nickname": nil,
		"tags":     []any{"vip"},
	}
	require.NoError(t, ValidateInstance(doc, good))

	bad := map[string]any{
		"id":       "c0ffee00-0000-4000-8000-000000000001",
		"age":      int64(999),
		"nickname": nil,
		"tags":     []any{"vip"},
	}
	require.Error(t, ValidateInstance(doc, bad), "out-of-bound values must fail validation")

	missing := map[string]any{"id": "x"}
	require.Error(t, ValidateInstance(doc, missing), "missing required fields must fail validation")
}

func TestBuildModelSchema_EnumAndUnion(t *testing.T) {
	model := &schema.ModelDef{
		Module: "m",
		Name:   "M",
		Fields: []schema.FieldDef{
			{Name: "state", Annotation: &schema.Annotation{Enum: []any{"open", "closed"}}},
			{Name: "value", Annotation: &schema.Annotation{Branches: []*schema.Annotation{
				{Type: schema.KindInt},
				{Type: schema.KindString},
			}}},
		},
	}

	doc := BuildModelSchema(model, nil)
	props := doc["properties"].(map[string]any)

	state := props["state"].(map[string]any)
	assert.Equal(t, []any{"open", "closed"}, state["enum"])

	value := props["value"].(map[string]any)
	require.Contains(t, value, "oneOf")

	require.NoError(t, ValidateInstance(doc, map[string]any{"state": "open", "value": int64(3)}))
	require.NoError(t, ValidateInstance(doc, map[string]any{"state": "closed", "value": "three"}))
	require.Error(t, ValidateInstance(doc, map[string]any{"state": "ajar", "value": int64(3)}))
}
