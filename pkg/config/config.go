package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fixturegen/fixturegen/pkg/generate"
	"github.com/fixturegen/fixturegen/pkg/provider"
	"github.com/fixturegen/fixturegen/pkg/strategy"
)

// DefaultFileName is the config file looked up at the project root.
const DefaultFileName = "fixturegen.yaml"

// Common errors for configuration loading.
var (
	ErrFileNotFound  = errors.New("configuration file not found")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AppConfig is the on-disk project configuration.
type AppConfig struct {
	// Seed is an int or string; empty means a fresh entropy seed per run.
	Seed any `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Locale is a BCP 47 tag selecting locale-sensitive word tables.
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`

	// DefaultPNone and OptionalPNone are probabilities in [0, 1].
	DefaultPNone  float64 `json:"defaultPNone,omitempty" yaml:"defaultPNone,omitempty"`
	OptionalPNone float64 `json:"optionalPNone,omitempty" yaml:"optionalPNone,omitempty"`

	// EnumPolicy and UnionPolicy are "first", "random", or "weighted".
	EnumPolicy  string `json:"enumPolicy,omitempty" yaml:"enumPolicy,omitempty"`
	UnionPolicy string `json:"unionPolicy,omitempty" yaml:"unionPolicy,omitempty"`

	// TimeAnchor pins temporal providers to a reference instant (RFC 3339).
	TimeAnchor string `json:"timeAnchor,omitempty" yaml:"timeAnchor,omitempty"`

	// Include and Exclude filter discovered models by qualified name.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// FieldPolicies maps field path patterns to generation overrides.
	FieldPolicies map[string]generate.FieldPolicy `json:"fieldPolicies,omitempty" yaml:"fieldPolicies,omitempty"`

	// Profile selects a named privacy profile, built-in or project-defined.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Profiles defines project privacy profiles; names shadow built-ins.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`

	// Relations maps "Model.field" to "OtherModel.field".
	Relations map[string]string `json:"relations,omitempty" yaml:"relations,omitempty"`

	RespectValidators   *bool `json:"respectValidators,omitempty" yaml:"respectValidators,omitempty"`
	ValidatorMaxRetries int   `json:"validatorMaxRetries,omitempty" yaml:"validatorMaxRetries,omitempty"`
	MaxDepth            int   `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`

	// FreezeFile overrides the default frozen-seed file path.
	FreezeFile string `json:"freezeFile,omitempty" yaml:"freezeFile,omitempty"`

	Numbers     *provider.NumberPolicy     `json:"numbers,omitempty" yaml:"numbers,omitempty"`
	Arrays      *provider.ArrayPolicy      `json:"arrays,omitempty" yaml:"arrays,omitempty"`
	Identifiers *provider.IdentifierPolicy `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Paths       *provider.PathPolicy       `json:"paths,omitempty" yaml:"paths,omitempty"`

	JSON     JSONSection     `json:"json,omitempty" yaml:"json,omitempty"`
	Fixtures FixturesSection `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`
	Log      LogSection      `json:"log,omitempty" yaml:"log,omitempty"`
}

// JSONSection configures the JSON sample emitter.
type JSONSection struct {
	Indent    int    `json:"indent,omitempty" yaml:"indent,omitempty"`
	Lines     bool   `json:"lines,omitempty" yaml:"lines,omitempty"`
	ShardSize int    `json:"shardSize,omitempty" yaml:"shardSize,omitempty"`
	Select    string `json:"select,omitempty" yaml:"select,omitempty"`
}

// FixturesSection configures the Go fixture emitter.
type FixturesSection struct {
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// LogSection configures command logging.
type LogSection struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		EnumPolicy:  strategy.PolicyFirst,
		UnionPolicy: strategy.PolicyFirst,
	}
}

// Load reads and validates a configuration file. YAML and JSON are detected
// by extension.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the config file at an explicit path, or the default file
// under root when present, or the built-in defaults.
func Discover(explicit, root string) (*AppConfig, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path := filepath.Join(root, DefaultFileName)
	cfg, err := Load(path)
	if errors.Is(err, ErrFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks value ranges and enumerated settings.
func (c *AppConfig) Validate() error {
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("%w: locale %q: %v", ErrInvalidConfig, c.Locale, err)
		}
	}
	for name, p := range map[string]float64{"defaultPNone": c.DefaultPNone, "optionalPNone": c.OptionalPNone} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s %v out of range [0, 1]", ErrInvalidConfig, name, p)
		}
	}
	for name, policy := range map[string]string{"enumPolicy": c.EnumPolicy, "unionPolicy": c.UnionPolicy} {
		switch policy {
		case "", strategy.PolicyFirst, strategy.PolicyRandom, strategy.PolicyWeighted:
		default:
			return fmt.Errorf("%w: %s %q (want first, random, or weighted)", ErrInvalidConfig, name, policy)
		}
	}
	if c.TimeAnchor != "" {
		if _, err := time.Parse(time.RFC3339, c.TimeAnchor); err != nil {
			return fmt.Errorf("%w: timeAnchor %q: %v", ErrInvalidConfig, c.TimeAnchor, err)
		}
	}
	for pattern, policy := range c.FieldPolicies {
		if policy.PNone != nil && (*policy.PNone < 0 || *policy.PNone > 1) {
			return fmt.Errorf("%w: fieldPolicies[%q].pNone out of range [0, 1]", ErrInvalidConfig, pattern)
		}
	}
	for name, profile := range c.Profiles {
		if err := validateProfile(name, profile); err != nil {
			return err
		}
	}
	if c.Profile != "" {
		if _, err := c.ResolveProfile(c.Profile); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// GenerationConfig maps the file settings onto a generation policy bundle.
// The seed and model index are bound later by the command runtime.
func (c *AppConfig) GenerationConfig() generate.GenerationConfig {
	gc := generate.DefaultConfig()
	if c.EnumPolicy != "" {
		gc.EnumPolicy = c.EnumPolicy
	}
	if c.UnionPolicy != "" {
		gc.UnionPolicy = c.UnionPolicy
	}
	gc.DefaultPNone = c.DefaultPNone
	gc.OptionalPNone = c.OptionalPNone

	var profilePolicies map[string]generate.FieldPolicy
	if c.Profile != "" {
		if profile, err := c.ResolveProfile(c.Profile); err == nil {
			if profile.DefaultPNone != nil && c.DefaultPNone == 0 {
				gc.DefaultPNone = *profile.DefaultPNone
			}
			if profile.OptionalPNone != nil && c.OptionalPNone == 0 {
				gc.OptionalPNone = *profile.OptionalPNone
			}
			profilePolicies = profile.FieldPolicies
		}
	}

	gc.Locale = c.Locale
	gc.FieldPolicies = mergeFieldPolicies(profilePolicies, c.FieldPolicies)
	gc.Relations = c.Relations
	if c.RespectValidators != nil {
		gc.RespectValidators = *c.RespectValidators
	}
	if c.ValidatorMaxRetries > 0 {
		gc.ValidatorMaxRetries = c.ValidatorMaxRetries
	}
	if c.MaxDepth > 0 {
		gc.MaxDepth = c.MaxDepth
	}
	if c.TimeAnchor != "" {
		anchor, err := time.Parse(time.RFC3339, c.TimeAnchor)
		if err == nil {
			gc.TimeAnchor = anchor
		}
	}
	if c.Numbers != nil {
		gc.Numbers = *c.Numbers
	}
	if c.Arrays != nil {
		gc.Arrays = *c.Arrays
	}
	if c.Identifiers != nil {
		gc.Identifiers = *c.Identifiers
	}
	if c.Paths != nil {
		gc.Paths = *c.Paths
	}
	return gc
}
