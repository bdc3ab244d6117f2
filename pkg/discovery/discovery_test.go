package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

const shopDoc = `module: shop
models:
  - name: Customer
    fields:
      - name: id
        annotation: {type: string, format: uuid}
  - name: Order
    fields:
      - name: customer_id
        annotation: {type: string, format: uuid}
        relation: Customer.id
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_NativeDocument(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "shop.yaml", shopDoc)

	models, warnings, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Empty(t, warnings)

	assert.Equal(t, "shop.Customer", models[0].QualifiedName())
	assert.Equal(t, "Customer.id", models[1].Fields[0].Relation)
}

func TestLoadFile_ModuleDefaultsToFileStem(t *testing.T) {
	doc := `models:
  - name: Item
    fields:
      - name: sku
        annotation: {type: string}
`
	path := writeDoc(t, t.TempDir(), "inventory.yaml", doc)

	models, _, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "inventory", models[0].Module)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "models.txt", "whatever")
	_, _, err := LoadFile(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_EmptyDocument(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "empty.yaml", "module: m\nmodels: []\n")
	_, _, err := LoadFile(path)
	require.ErrorIs(t, err, ErrNoModels)
}

func TestLoadFile_InvalidModel(t *testing.T) {
	doc := `models:
  - name: Broken
    fields:
      - name: f
      - name: f
`
	path := writeDoc(t, t.TempDir(), "broken.yaml", doc)
	_, _, err := LoadFile(path)
	require.Error(t, err)
}

func TestDiscover_FiltersAndOrder(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "shop.yaml", shopDoc)
	writeDoc(t, dir, "crm.yaml", `module: crm
models:
  - name: Lead
    fields:
      - name: email
        annotation: {type: string, format: email}
`)

	set, err := Discover([]string{filepath.Join(dir, "*.yaml")}, Options{})
	require.NoError(t, err)
	require.Len(t, set.Models, 3)
	assert.Equal(t, "crm.Lead", set.Models[0].QualifiedName())
	assert.Equal(t, "shop.Customer", set.Models[1].QualifiedName())
	assert.Equal(t, "shop.Order", set.Models[2].QualifiedName())

	set, err = Discover([]string{filepath.Join(dir, "*.yaml")}, Options{
		Include: []string{"shop.*"},
		Exclude: []string{"shop.Order"},
	})
	require.NoError(t, err)
	require.Len(t, set.Models, 1)
	assert.Equal(t, "shop.Customer", set.Models[0].QualifiedName())
}

func TestDiscover_DuplicateModel(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.yaml", shopDoc)
	writeDoc(t, dir, "b.yaml", shopDoc)

	_, err := Discover([]string{filepath.Join(dir, "*.yaml")}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop.Customer")
}

func TestDiscover_MalformedFilterPattern(t *testing.T) {
	_, err := Discover([]string{"anything.yaml"}, Options{Include: []string{"[bad"}})
	require.Error(t, err)
}

func TestDiscover_NoFiles(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "*.yaml")}, Options{})
	require.Error(t, err)
}

func TestSet_IndexAmbiguousBareNames(t *testing.T) {
	set := &Set{Models: []*schema.ModelDef{
		{Module: "a", Name: "User", Fields: []schema.FieldDef{{Name: "id", Annotation: &schema.Annotation{Type: schema.KindString}}}},
		{Module: "b", Name: "User", Fields: []schema.FieldDef{{Name: "id", Annotation: &schema.Annotation{Type: schema.KindString}}}},
	}}

	index := set.Index()
	assert.NotNil(t, index["a.User"])
	assert.NotNil(t, index["b.User"])
	assert.Nil(t, index["User"], "an ambiguous bare name must not resolve")
}

func TestImportOpenAPI_ThroughLoadFile(t *testing.T) {
	doc := `openapi: 3.0.3
info:
  title: shop
  version: "1.0"
paths: {}
components:
  schemas:
    Customer:
      type: object
      required: [id]
      properties:
        id:
          type: string
          format: uuid
        age:
          type: integer
          minimum: 0
          maximum: 120
        tags:
          type: array
          minItems: 1
          items:
            type: string
    Order:
      type: object
      required: [customer]
      properties:
        customer:
          $ref: '#/components/schemas/Customer'
    Status:
      type: string
      enum: [open, closed]
`
	path := writeDoc(t, t.TempDir(), "api.yaml", doc)

	models, warnings, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, models, 2, "non-object components are skipped")
	assert.NotEmpty(t, warnings)

	customer := models[0]
	require.Equal(t, "Customer", customer.Name)
	assert.Equal(t, "api", customer.Module)

	// Properties import alphabetically.
	require.Len(t, customer.Fields, 3)
	age := customer.Fields[0]
	assert.Equal(t, "age", age.Name)
	assert.Equal(t, schema.KindInt, age.Annotation.Type)
	assert.True(t, age.Annotation.Optional, "non-required properties are optional")
	require.NotNil(t, age.Constraints.Ge)
	assert.Equal(t, 0.0, *age.Constraints.Ge)
	require.NotNil(t, age.Constraints.Le)
	assert.Equal(t, 120.0, *age.Constraints.Le)

	id := customer.Fields[1]
	assert.Equal(t, schema.KindString, id.Annotation.Type)
	assert.Equal(t, "uuid", id.Annotation.Format)
	assert.False(t, id.Annotation.Optional)

	tags := customer.Fields[2]
	assert.Equal(t, schema.KindList, tags.Annotation.Type)
	require.NotNil(t, tags.Constraints.MinItems)
	assert.Equal(t, 1, *tags.Constraints.MinItems)

	order := models[1]
	require.Equal(t, "Order", order.Name)
	require.Len(t, order.Fields, 1)
	assert.Equal(t, "Customer", order.Fields[0].Annotation.Ref)
}

func TestInspect_Diagnostics(t *testing.T) {
	strAnn := &schema.Annotation{Type: schema.KindString}
	set := &Set{Models: []*schema.ModelDef{
		{Module: "m", Name: "Opaque", Fields: []schema.FieldDef{
			{Name: "blob", Annotation: &schema.Annotation{Type: "mystery"}},
		}},
		{Module: "m", Name: "Dangling", Fields: []schema.FieldDef{
			{Name: "other", Annotation: &schema.Annotation{Ref: "m.Missing"}},
		}},
		{Module: "m", Name: "BadRelation", Fields: []schema.FieldDef{
			{Name: "owner_id", Annotation: strAnn, Relation: "Nobody.id"},
			{Name: "opaque_id", Annotation: strAnn, Relation: "Opaque.id"},
		}},
	}}

	diags := Inspect(set)

	bySeverity := map[string]int{}
	for _, d := range diags {
		bySeverity[d.Severity]++
	}
	assert.Equal(t, 1, bySeverity[SeverityWarning], "opaque field warns")
	assert.Equal(t, 3, bySeverity[SeverityError], "dangling ref and two bad relations")
}

func TestInspect_CycleWarning(t *testing.T) {
	set := &Set{Models: []*schema.ModelDef{
		{Module: "g", Name: "A", Fields: []schema.FieldDef{
			{Name: "b", Annotation: &schema.Annotation{Ref: "g.B"}},
		}},
		{Module: "g", Name: "B", Fields: []schema.FieldDef{
			{Name: "a", Annotation: &schema.Annotation{Ref: "g.A"}},
		}},
	}}

	diags := Inspect(set)
	cycles := 0
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			cycles++
			assert.Contains(t, d.Message, "cycle")
		}
	}
	assert.Equal(t, 2, cycles, "each participating model is reported once")
}
