package emit

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

func TestEmitGoFixtures(t *testing.T) {
	model := &schema.ModelDef{Module: "shop", Name: "Order"}
	instances := []map[string]any{
		{
			"id":       "ord-1",
			"quantity": int64(3),
			"total":    json.Number("10.50"),
			"ratio":    0.25,
			"active":   true,
			"note":     nil,
			"tags":     []any{"a", "b"},
		},
	}

	data, err := EmitGoFixtures("testdata", model, instances)
	require.NoError(t, err)
	src := string(data)

	assert.True(t, strings.HasPrefix(src, "// Code generated by fixturegen. DO NOT EDIT.\n"))
	assert.Contains(t, src, "package testdata\n")
	assert.Contains(t, src, `import "encoding/json"`)
	assert.Contains(t, src, "var OrderFixtures = []map[string]any{")
	assert.Contains(t, src, `"quantity": int64(3)`)
	assert.Contains(t, src, `json.Number("10.50")`)
	assert.Contains(t, src, `"ratio": 0.25`)
	assert.Contains(t, src, `"note": nil`)
	assert.Contains(t, src, `"active": true`)
}

func TestEmitGoFixtures_NoJSONImportWithoutNumbers(t *testing.T) {
	model := &schema.ModelDef{Module: "m", Name: "Plain"}
	data, err := EmitGoFixtures("", model, []map[string]any{{"name": "x"}})
	require.NoError(t, err)

	src := string(data)
	assert.Contains(t, src, "package fixtures\n", "empty package name falls back")
	assert.NotContains(t, src, "encoding/json")
}

func TestEmitGoFixtures_IntegralFloatsStayFloats(t *testing.T) {
	model := &schema.ModelDef{Module: "m", Name: "M"}
	data, err := EmitGoFixtures("f", model, []map[string]any{{"v": 1000000.0}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"v": 1000000.0`, "integral floats keep a fractional digit")
}

func TestEmitGoFixtures_Deterministic(t *testing.T) {
	model := &schema.ModelDef{Module: "m", Name: "M"}
	instances := []map[string]any{{"b": 1, "a": 2, "c": 3}}

	first, err := EmitGoFixtures("f", model, instances)
	require.NoError(t, err)
	second, err := EmitGoFixtures("f", model, instances)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	aIdx := strings.Index(string(first), `"a"`)
	cIdx := strings.Index(string(first), `"c"`)
	assert.Less(t, aIdx, cIdx, "map keys render sorted")
}
