package provider

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProvider(v any) Func {
	return func(req *Request) (any, error) { return v, nil }
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	ref, err := r.Register("string", staticProvider("x"), RegisterOptions{Name: "string.plain"})
	require.NoError(t, err)
	assert.Equal(t, "string.plain", ref.Name)

	got := r.Get("string", "")
	require.NotNil(t, got)
	assert.Equal(t, ref, got)
}

func TestRegistry_DuplicateRejectedWithoutOverride(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("string", staticProvider("a"), RegisterOptions{})
	require.NoError(t, err)

	_, err = r.Register("string", staticProvider("b"), RegisterOptions{})
	require.ErrorIs(t, err, ErrDuplicateProvider)

	ref, err := r.Register("string", staticProvider("b"), RegisterOptions{Override: true})
	require.NoError(t, err)

	v, err := ref.Func(nil)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestRegistry_FormatFallback(t *testing.T) {
	r := NewRegistry()
	plain, err := r.Register("string", staticProvider("plain"), RegisterOptions{})
	require.NoError(t, err)
	email, err := r.Register("string", staticProvider("email"), RegisterOptions{Format: "email"})
	require.NoError(t, err)

	assert.Equal(t, email, r.Get("string", "email"))
	// Unknown format falls back to the format-less provider.
	assert.Equal(t, plain, r.Get("string", "no-such-format"))
	assert.Nil(t, r.Get("int", "email"))
}

func TestRegistry_AvailableSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := r.Register(name, staticProvider(name), RegisterOptions{Name: name})
		require.NoError(t, err)
	}

	refs := r.Available()
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	assert.True(t, sort.StringsAreSorted(names), "Available() must be name-sorted, got %v", names)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("string", staticProvider("x"), RegisterOptions{Format: "email"})
	require.NoError(t, err)

	r.Unregister("string", "email")
	assert.Nil(t, r.Get("string", "email"))
}

type testPlugin struct {
	name string
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) RegisterProviders(r *Registry) error {
	_, err := r.Register("custom.widget", staticProvider("widget"), RegisterOptions{Name: p.name + ".widget"})
	return err
}

func TestRegistry_Plugins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterPlugin(&testPlugin{name: "acme"}))

	ref := r.Get("custom.widget", "")
	require.NotNil(t, ref)
	assert.Equal(t, "acme.widget", ref.Name)
}

func TestNewBuiltinRegistry_CoversCoreTypes(t *testing.T) {
	r, err := NewBuiltinRegistry()
	require.NoError(t, err)

	for _, typeID := range []string{"int", "float", "bool", "decimal", "string", "bytes"} {
		assert.NotNil(t, r.Get(typeID, ""), "missing builtin for %q", typeID)
	}
	for _, format := range []string{"email", "uuid", "date-time", "ipv4", "hostname", "slug"} {
		assert.NotNil(t, r.Get("string", format), "missing builtin for string/%q", format)
	}
}
