package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/strategy"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	doc := `seed: campaign-7
locale: de
defaultPNone: 0.1
optionalPNone: 0.5
enumPolicy: random
timeAnchor: "2024-06-01T12:00:00Z"
include: ["shop.*"]
fieldPolicies:
  "*.email":
    provider: string.email
relations:
  Order.customer_id: Customer.id
validatorMaxRetries: 25
json:
  indent: 2
  lines: true
log:
  level: debug
`
	path := writeConfig(t, t.TempDir(), "fixturegen.yaml", doc)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "campaign-7", cfg.Seed)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, 0.1, cfg.DefaultPNone)
	assert.Equal(t, strategy.PolicyRandom, cfg.EnumPolicy)
	assert.Equal(t, []string{"shop.*"}, cfg.Include)
	assert.Equal(t, "string.email", cfg.FieldPolicies["*.email"].Provider)
	assert.Equal(t, "Customer.id", cfg.Relations["Order.customer_id"])
	assert.Equal(t, 2, cfg.JSON.Indent)
	assert.True(t, cfg.JSON.Lines)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad locale", "locale: \"!!nope!!\"\n"},
		{"pNone out of range", "defaultPNone: 1.5\n"},
		{"unknown policy", "enumPolicy: sometimes\n"},
		{"bad time anchor", "timeAnchor: yesterday\n"},
		{"field policy pNone", "fieldPolicies:\n  \"*.x\":\n    pNone: -0.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "fixturegen.yaml", tt.doc)
			_, err := Load(path)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Discover("", dir)
	require.NoError(t, err)
	assert.Equal(t, strategy.PolicyFirst, cfg.EnumPolicy, "no file falls back to defaults")

	writeConfig(t, dir, DefaultFileName, "enumPolicy: weighted\n")
	cfg, err = Discover("", dir)
	require.NoError(t, err)
	assert.Equal(t, strategy.PolicyWeighted, cfg.EnumPolicy)

	explicit := writeConfig(t, dir, "other.yaml", "enumPolicy: random\n")
	cfg, err = Discover(explicit, dir)
	require.NoError(t, err)
	assert.Equal(t, strategy.PolicyRandom, cfg.EnumPolicy)

	_, err = Discover(filepath.Join(dir, "absent.yaml"), dir)
	require.Error(t, err, "an explicit path must not fall back")
}

func TestGenerationConfig_Mapping(t *testing.T) {
	respect := false
	cfg := &AppConfig{
		EnumPolicy:          strategy.PolicyRandom,
		DefaultPNone:        0.2,
		OptionalPNone:       0.4,
		Locale:              "fr",
		TimeAnchor:          "2024-06-01T12:00:00Z",
		RespectValidators:   &respect,
		ValidatorMaxRetries: 99,
		MaxDepth:            4,
		Relations:           map[string]string{"Order.customer_id": "Customer.id"},
	}

	gc := cfg.GenerationConfig()
	assert.Equal(t, strategy.PolicyRandom, gc.EnumPolicy)
	assert.Equal(t, strategy.PolicyFirst, gc.UnionPolicy, "unset settings keep defaults")
	assert.Equal(t, 0.2, gc.DefaultPNone)
	assert.Equal(t, 0.4, gc.OptionalPNone)
	assert.Equal(t, "fr", gc.Locale)
	assert.False(t, gc.RespectValidators)
	assert.Equal(t, 99, gc.ValidatorMaxRetries)
	assert.Equal(t, 4, gc.MaxDepth)
	assert.Equal(t, "Customer.id", gc.Relations["Order.customer_id"])

	want, err := time.Parse(time.RFC3339, "2024-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, gc.TimeAnchor.Equal(want))
}

func TestGenerationConfig_DefaultsSurvive(t *testing.T) {
	gc := Default().GenerationConfig()
	assert.Equal(t, strategy.PolicyFirst, gc.EnumPolicy)
	assert.True(t, gc.RespectValidators)
	assert.Greater(t, gc.ValidatorMaxRetries, 0)
	assert.Greater(t, gc.MaxDepth, 0)
	assert.NotZero(t, gc.Numbers, "number policy defaults apply")
}
