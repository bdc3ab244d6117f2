package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileOverrides_SpecificityOrdering(t *testing.T) {
	policies := map[string]FieldPolicy{
		"*.email":          {Provider: "string.plain"},
		"shop.Order.email": {Provider: "string.email"},
		"shop.Order.*":     {Skip: true},
		"shop.**":          {Pin: true},
	}
	compiled, err := compileOverrides(policies)
	require.NoError(t, err)
	require.Len(t, compiled, 4)

	assert.Equal(t, "shop.Order.email", compiled[0].pattern, "exact patterns rank first")
	for i := 1; i < len(compiled); i++ {
		assert.GreaterOrEqual(t, compiled[i-1].specificity, compiled[i].specificity)
	}
}

func TestCompileOverrides_MalformedPattern(t *testing.T) {
	_, err := compileOverrides(map[string]FieldPolicy{"[oops": {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[oops")
}

func TestResolveOverride_MostSpecificWins(t *testing.T) {
	compiled, err := compileOverrides(map[string]FieldPolicy{
		"*.email":          {Provider: "generic"},
		"shop.Order.email": {Provider: "exact"},
	})
	require.NoError(t, err)

	got := resolveOverride(compiled, "shop.Order.email")
	require.NotNil(t, got)
	assert.Equal(t, "exact", got.Provider)

	got = resolveOverride(compiled, "crm.Lead.email")
	require.NotNil(t, got)
	assert.Equal(t, "generic", got.Provider)

	assert.Nil(t, resolveOverride(compiled, "shop.Order.total"))
}

func TestResolveOverride_DeterministicTiebreak(t *testing.T) {
	// Equal specificity resolves by pattern order, so repeated runs agree.
	compiled, err := compileOverrides(map[string]FieldPolicy{
		"*.aa": {Provider: "one"},
		"*.ab": {Provider: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "*.aa", compiled[0].pattern)
}
