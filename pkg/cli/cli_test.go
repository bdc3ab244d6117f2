package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixturegen/fixturegen/pkg/config"
	"github.com/fixturegen/fixturegen/pkg/schema"
)

func TestPerModelPath(t *testing.T) {
	assert.Equal(t, "out-order.json", perModelPath("out.json", "Order"))
	assert.Equal(t, "dir/samples-customer.jsonl", perModelPath("dir/samples.jsonl", "Customer"))
	assert.Equal(t, "plain-order", perModelPath("plain", "Order"))
}

func TestSeedInput(t *testing.T) {
	empty := &config.AppConfig{}
	assert.Equal(t, int64(42), seedInput("42", empty))
	assert.Equal(t, "campaign-7", seedInput("campaign-7", empty))
	assert.Equal(t, "from-config", seedInput("", &config.AppConfig{Seed: "from-config"}))
	assert.Nil(t, seedInput("", empty))
}

func TestDescribeSummary(t *testing.T) {
	tests := []struct {
		name  string
		field schema.FieldDef
		want  string
	}{
		{
			"plain string with format",
			schema.FieldDef{Name: "email", Annotation: &schema.Annotation{Type: schema.KindString, Format: "email"}},
			"string (email)",
		},
		{
			"enum",
			schema.FieldDef{Name: "state", Annotation: &schema.Annotation{Enum: []any{"a", "b"}}},
			"enum(2 values)",
		},
		{
			"model ref",
			schema.FieldDef{Name: "customer", Annotation: &schema.Annotation{Ref: "shop.Customer"}},
			"ref shop.Customer",
		},
		{
			"list of int",
			schema.FieldDef{Name: "counts", Annotation: &schema.Annotation{Type: schema.KindList, Item: &schema.Annotation{Type: schema.KindInt}}},
			"list[int]",
		},
		{
			"optional relation",
			schema.FieldDef{
				Name:       "owner_id",
				Annotation: &schema.Annotation{Type: schema.KindString, Optional: true},
				Relation:   "User.id",
			},
			"string, optional, relation User.id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeSummary(&tt.field, schema.Summarize(&tt.field))
			assert.Equal(t, tt.want, got)
		})
	}
}
