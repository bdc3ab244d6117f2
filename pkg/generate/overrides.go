package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// compiledOverride is one field policy with its pattern pre-validated and a
// specificity rank for most-specific-wins resolution.
type compiledOverride struct {
	pattern     string
	policy      FieldPolicy
	specificity int
}

// compileOverrides validates every field-policy pattern up front; a
// malformed pattern is a configuration error raised before generation
// begins. Overrides are sorted most specific first, with the pattern string
// as a deterministic tiebreaker.
func compileOverrides(policies map[string]FieldPolicy) ([]compiledOverride, error) {
	out := make([]compiledOverride, 0, len(policies))
	for pattern, policy := range policies {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("malformed field policy pattern %q", pattern)
		}
		out = append(out, compiledOverride{
			pattern:     pattern,
			policy:      policy,
			specificity: patternSpecificity(pattern),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].specificity != out[j].specificity {
			return out[i].specificity > out[j].specificity
		}
		return out[i].pattern < out[j].pattern
	})
	return out, nil
}

// patternSpecificity ranks a pattern by how much literal text it pins down:
// exact patterns outrank globs, and longer literal runs outrank shorter
// ones. Exact model+field always beats a wildcard.
func patternSpecificity(pattern string) int {
	if !strings.ContainsAny(pattern, "*?[{") {
		return 1 << 16
	}
	literal := 0
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', ']', '{', '}':
		default:
			literal++
		}
	}
	return literal
}

// resolveOverride returns the policy of the most specific pattern matching
// the qualified field path, or nil.
func resolveOverride(overrides []compiledOverride, fieldPath string) *FieldPolicy {
	for i := range overrides {
		ok, err := doublestar.Match(overrides[i].pattern, fieldPath)
		if err == nil && ok {
			return &overrides[i].policy
		}
	}
	return nil
}
