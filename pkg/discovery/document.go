package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// Errors returned by document loading.
var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported document format")
	ErrNoModels          = fmt.Errorf("document declares no models")
)

// Document is the on-disk shape of a native model-definition file.
type Document struct {
	// Version is the document format version; zero is treated as 1.
	Version int `json:"version,omitempty" yaml:"version,omitempty"`

	// Module is the logical namespace applied to every model in the
	// document. Empty defaults to the file name stem.
	Module string `json:"module,omitempty" yaml:"module,omitempty"`

	Models []*schema.ModelDef `json:"models" yaml:"models"`
}

// probe is a minimal decode used to sniff OpenAPI documents, which carry a
// top-level "openapi" version marker that native documents never have.
type probe struct {
	OpenAPI string `json:"openapi" yaml:"openapi"`
}

// LoadFile loads one model-definition file. YAML and JSON are detected by
// extension; a document carrying an "openapi" marker is imported through the
// OpenAPI path instead.
func LoadFile(path string) ([]*schema.ModelDef, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	var marker probe
	if ext == ".json" {
		_ = json.Unmarshal(data, &marker)
	} else {
		_ = yaml.Unmarshal(data, &marker)
	}
	if marker.OpenAPI != "" {
		return ImportOpenAPI(path, moduleStem(path))
	}

	var doc Document
	if ext == ".json" {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(doc.Models) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoModels, path)
	}

	module := doc.Module
	if module == "" {
		module = moduleStem(path)
	}

	for _, model := range doc.Models {
		if model.Module == "" {
			model.Module = module
		}
		if err := model.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return doc.Models, nil, nil
}

// moduleStem derives the default module namespace from a file path.
func moduleStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
