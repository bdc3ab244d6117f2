package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// DefaultFreezeFileName is the freeze file looked up at the project root.
const DefaultFreezeFileName = ".fixturegen-seeds.yaml"

const freezeFileVersion = 1

// FreezeStatus describes the outcome of a frozen-seed lookup.
type FreezeStatus int

// Lookup outcomes.
const (
	// FreezeValid means the stored seed matches the current model digest.
	FreezeValid FreezeStatus = iota
	// FreezeMissing means no entry exists for the model.
	FreezeMissing
	// FreezeStale means an entry exists but was recorded for a different
	// model shape.
	FreezeStale
)

type freezeEntry struct {
	Seed   int64  `yaml:"seed"`
	Digest string `yaml:"digest,omitempty"`
}

type freezeDoc struct {
	Version int                    `yaml:"version"`
	Models  map[string]freezeEntry `yaml:"models"`
}

// FreezeFile persists per-model seeds between runs so repeated runs
// reproduce identical output without re-specifying the seed.
type FreezeFile struct {
	Path string

	// Messages collects non-fatal problems found while loading; callers
	// surface them as warnings.
	Messages []string

	doc   freezeDoc
	dirty bool
}

// ResolveFreezePath returns the explicit path when given, else the default
// file under root.
func ResolveFreezePath(explicit string, root string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(root, DefaultFreezeFileName)
}

// LoadFreezeFile reads a freeze file, tolerating a missing or malformed
// file: problems are recorded in Messages and an empty freeze state is
// returned so the run can proceed with derived seeds.
func LoadFreezeFile(path string) *FreezeFile {
	f := &FreezeFile{
		Path: path,
		doc:  freezeDoc{Version: freezeFileVersion, Models: make(map[string]freezeEntry)},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.Messages = append(f.Messages, fmt.Sprintf("cannot read freeze file: %v", err))
		}
		return f
	}

	var doc freezeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		f.Messages = append(f.Messages, fmt.Sprintf("malformed freeze file: %v", err))
		return f
	}
	if doc.Version != freezeFileVersion {
		f.Messages = append(f.Messages, fmt.Sprintf("unsupported freeze file version %d", doc.Version))
		return f
	}
	if doc.Models == nil {
		doc.Models = make(map[string]freezeEntry)
	}
	f.doc = doc
	return f
}

// ResolveSeed looks up the frozen seed for a model, checking the stored
// digest against the model's current digest.
func (f *FreezeFile) ResolveSeed(modelID, digest string) (int64, FreezeStatus) {
	entry, ok := f.doc.Models[modelID]
	if !ok {
		return 0, FreezeMissing
	}
	if entry.Digest != "" && digest != "" && entry.Digest != digest {
		return 0, FreezeStale
	}
	return entry.Seed, FreezeValid
}

// RecordSeed stores a model's selected seed and digest for the next run.
func (f *FreezeFile) RecordSeed(modelID string, seedValue int64, digest string) {
	f.doc.Models[modelID] = freezeEntry{Seed: seedValue, Digest: digest}
	f.dirty = true
}

// Save writes the freeze file atomically (tmp file + rename). A no-op when
// nothing was recorded.
func (f *FreezeFile) Save() error {
	if !f.dirty {
		return nil
	}
	data, err := yaml.Marshal(f.doc)
	if err != nil {
		return fmt.Errorf("marshal freeze file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create freeze dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write freeze file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename freeze file: %w", err)
	}
	f.dirty = false
	return nil
}

// ComputeModelDigest produces a stable digest of a model's shape, used to
// detect stale frozen seeds after a model changes.
func ComputeModelDigest(model *schema.ModelDef) string {
	data, err := json.Marshal(model)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
