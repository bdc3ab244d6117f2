package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

func testModel() *schema.ModelDef {
	return &schema.ModelDef{
		Module: "shop",
		Name:   "Order",
		Fields: []schema.FieldDef{
			{Name: "id", Annotation: &schema.Annotation{Type: schema.KindString, Format: "uuid"}},
		},
	}
}

func TestFreezeFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFreezeFileName)
	digest := ComputeModelDigest(testModel())

	f := LoadFreezeFile(path)
	assert.Empty(t, f.Messages)

	_, status := f.ResolveSeed("shop.Order", digest)
	assert.Equal(t, FreezeMissing, status)

	f.RecordSeed("shop.Order", 777, digest)
	require.NoError(t, f.Save())

	reloaded := LoadFreezeFile(path)
	assert.Empty(t, reloaded.Messages)
	got, status := reloaded.ResolveSeed("shop.Order", digest)
	assert.Equal(t, FreezeValid, status)
	assert.Equal(t, int64(777), got)
}

func TestFreezeFile_StaleDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFreezeFileName)

	f := LoadFreezeFile(path)
	f.RecordSeed("shop.Order", 777, "old-digest")
	require.NoError(t, f.Save())

	reloaded := LoadFreezeFile(path)
	_, status := reloaded.ResolveSeed("shop.Order", "new-digest")
	assert.Equal(t, FreezeStale, status)
}

func TestFreezeFile_MalformedIsTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFreezeFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not yaml:::"), 0o644))

	f := LoadFreezeFile(path)
	assert.NotEmpty(t, f.Messages)

	_, status := f.ResolveSeed("anything", "")
	assert.Equal(t, FreezeMissing, status)
}

func TestFreezeFile_SaveIsNoOpWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFreezeFileName)
	f := LoadFreezeFile(path)
	require.NoError(t, f.Save())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean freeze state must not create a file")
}

func TestComputeModelDigest_TracksShape(t *testing.T) {
	a := ComputeModelDigest(testModel())

	changed := testModel()
	changed.Fields = append(changed.Fields, schema.FieldDef{
		Name:       "total",
		Annotation: &schema.Annotation{Type: schema.KindDecimal},
	})

	assert.NotEqual(t, a, ComputeModelDigest(changed))
	assert.Equal(t, a, ComputeModelDigest(testModel()))
}

func TestResolveFreezePath(t *testing.T) {
	assert.Equal(t, "/tmp/custom.yaml", ResolveFreezePath("/tmp/custom.yaml", "/project"))
	assert.Equal(t, filepath.Join("/project", DefaultFreezeFileName), ResolveFreezePath("", "/project"))
}
