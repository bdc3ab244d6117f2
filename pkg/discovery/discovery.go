package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// Options filters discovered models by qualified name.
type Options struct {
	// Include keeps only models whose qualified name matches at least one
	// pattern; empty keeps everything.
	Include []string

	// Exclude drops models whose qualified name matches any pattern.
	// Exclusion wins over inclusion.
	Exclude []string
}

// Set is the result of a discovery pass: models in a stable order plus
// non-fatal warnings accumulated along the way.
type Set struct {
	Models   []*schema.ModelDef
	Warnings []string
}

// Index maps both qualified and bare model names to their definitions. A
// bare name shared by models in different modules resolves to neither and
// must be qualified.
func (s *Set) Index() map[string]*schema.ModelDef {
	index := make(map[string]*schema.ModelDef, len(s.Models)*2)
	ambiguous := make(map[string]bool)
	for _, model := range s.Models {
		index[model.QualifiedName()] = model
		if prev, ok := index[model.Name]; ok && prev != model {
			ambiguous[model.Name] = true
			continue
		}
		index[model.Name] = model
	}
	for name := range ambiguous {
		delete(index, name)
	}
	return index
}

// Find resolves a model by qualified or bare name.
func (s *Set) Find(name string) *schema.ModelDef {
	return s.Index()[name]
}

// Discover loads every path (literal file or doublestar glob), applies the
// include/exclude filters, and returns the surviving models ordered by
// qualified name. Malformed filter patterns are configuration errors.
func Discover(paths []string, opts Options) (*Set, error) {
	for _, pattern := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("malformed filter pattern %q", pattern)
		}
	}

	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no model definition files found in %v", paths)
	}

	set := &Set{}
	seen := make(map[string]string)
	for _, file := range files {
		models, warnings, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		set.Warnings = append(set.Warnings, warnings...)
		for _, model := range models {
			qualified := model.QualifiedName()
			if origin, dup := seen[qualified]; dup {
				return nil, fmt.Errorf("model %s defined in both %s and %s", qualified, origin, file)
			}
			seen[qualified] = file
			set.Models = append(set.Models, model)
		}
	}

	set.Models = filterModels(set.Models, opts)
	sort.Slice(set.Models, func(i, j int) bool {
		return set.Models[i].QualifiedName() < set.Models[j].QualifiedName()
	})
	return set, nil
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		if !strings.ContainsAny(path, "*?[{") {
			files = append(files, path)
			continue
		}
		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", path, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func filterModels(models []*schema.ModelDef, opts Options) []*schema.ModelDef {
	if len(opts.Include) == 0 && len(opts.Exclude) == 0 {
		return models
	}
	kept := models[:0]
	for _, model := range models {
		name := model.QualifiedName()
		if len(opts.Include) > 0 && !matchesAny(opts.Include, name) {
			continue
		}
		if matchesAny(opts.Exclude, name) {
			continue
		}
		kept = append(kept, model)
	}
	return kept
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
