package config

import (
	"fmt"

	"github.com/fixturegen/fixturegen/pkg/generate"
)

// Profile is a named bundle of privacy-oriented generation settings. A
// selected profile is applied before explicit config values, so individual
// settings in the config file always win over the profile's.
type Profile struct {
	// DefaultPNone and OptionalPNone replace the run probabilities when set.
	DefaultPNone  *float64 `json:"defaultPNone,omitempty" yaml:"defaultPNone,omitempty"`
	OptionalPNone *float64 `json:"optionalPNone,omitempty" yaml:"optionalPNone,omitempty"`

	// FieldPolicies are merged under the config file's own policies; a
	// pattern declared in both places takes the config file's version.
	FieldPolicies map[string]generate.FieldPolicy `json:"fieldPolicies,omitempty" yaml:"fieldPolicies,omitempty"`
}

// BuiltinProfiles returns the profiles available without any project
// definition. Project profiles with the same name shadow these.
//
//   - pii-null nulls out common personal-data fields.
//   - pii-mask redirects them to the opaque secret provider instead, so the
//     fields stay populated but carry no realistic-looking values.
func BuiltinProfiles() map[string]Profile {
	always := 1.0
	piiPatterns := []string{"*.email", "*.phone", "*.name", "*.first_name", "*.last_name", "*.address", "*.ssn"}

	null := make(map[string]generate.FieldPolicy, len(piiPatterns))
	mask := make(map[string]generate.FieldPolicy, len(piiPatterns))
	for _, pattern := range piiPatterns {
		null[pattern] = generate.FieldPolicy{PNone: &always}
		mask[pattern] = generate.FieldPolicy{Provider: "string.secret"}
	}

	return map[string]Profile{
		"pii-null": {FieldPolicies: null},
		"pii-mask": {FieldPolicies: mask},
	}
}

// ResolveProfile looks a profile up by name: project profiles first, then
// the built-ins.
func (c *AppConfig) ResolveProfile(name string) (Profile, error) {
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if p, ok := BuiltinProfiles()[name]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}

func validateProfile(name string, p Profile) error {
	for field, v := range map[string]*float64{"defaultPNone": p.DefaultPNone, "optionalPNone": p.OptionalPNone} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%w: profiles[%q].%s out of range [0, 1]", ErrInvalidConfig, name, field)
		}
	}
	for pattern, policy := range p.FieldPolicies {
		if policy.PNone != nil && (*policy.PNone < 0 || *policy.PNone > 1) {
			return fmt.Errorf("%w: profiles[%q].fieldPolicies[%q].pNone out of range [0, 1]", ErrInvalidConfig, name, pattern)
		}
	}
	return nil
}

// mergeFieldPolicies layers explicit policies over a profile's; explicit
// entries win on pattern collisions.
func mergeFieldPolicies(profile, explicit map[string]generate.FieldPolicy) map[string]generate.FieldPolicy {
	if len(profile) == 0 {
		return explicit
	}
	merged := make(map[string]generate.FieldPolicy, len(profile)+len(explicit))
	for pattern, policy := range profile {
		merged[pattern] = policy
	}
	for pattern, policy := range explicit {
		merged[pattern] = policy
	}
	return merged
}
