package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/fixturegen/fixturegen/pkg/config"
	"github.com/fixturegen/fixturegen/pkg/discovery"
	"github.com/fixturegen/fixturegen/pkg/generate"
	"github.com/fixturegen/fixturegen/pkg/logging"
	"github.com/fixturegen/fixturegen/pkg/provider"
	"github.com/fixturegen/fixturegen/pkg/schema"
	"github.com/fixturegen/fixturegen/pkg/seed"
)

// Common CLI errors
var (
	ErrNoModels             = errors.New("no models selected - check paths and include/exclude filters")
	ErrGenerationExhausted  = errors.New("generation exhausted its validator retry budget")
	ErrDiagnosticsFailed    = errors.New("model inspection found errors")
	ErrModelNotFound        = errors.New("model not found")
	ErrMissingOutputForFile = errors.New("sharded output requires --out")
	ErrArtifactDiverged     = errors.New("generated instances diverge from the artifact")
)

// runtime is the shared wiring behind every command: loaded config,
// discovered models, the provider registry with plugins applied, and the
// seed state for the run.
type runtime struct {
	cfg      *config.AppConfig
	set      *discovery.Set
	registry *provider.Registry
	seeds    *seed.Manager
	freeze   *seed.FreezeFile
	logger   *slog.Logger
}

// setupRuntime builds the runtime for a command invocation. seedFlag
// overrides the config seed; an integer-looking string is normalized as an
// integer.
func setupRuntime(paths []string, seedFlag string, useFreeze bool) (*runtime, error) {
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
	})

	cfg, err := config.Discover(configPath, ".")
	if err != nil {
		return nil, err
	}

	set, err := discovery.Discover(paths, discovery.Options{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return nil, err
	}
	if len(set.Models) == 0 {
		return nil, ErrNoModels
	}
	for _, warning := range set.Warnings {
		logger.Warn("discovery", "warning", warning)
	}

	registry, err := provider.NewBuiltinRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.LoadExternalPlugins(); err != nil {
		return nil, fmt.Errorf("loading provider plugins: %w", err)
	}

	seedValue := seedInput(seedFlag, cfg)
	seeds, err := seed.NewManager(seedValue)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		set:      set,
		registry: registry,
		seeds:    seeds,
		logger:   logger,
	}

	if useFreeze {
		path := seed.ResolveFreezePath(cfg.FreezeFile, ".")
		rt.freeze = seed.LoadFreezeFile(path)
		for _, msg := range rt.freeze.Messages {
			logger.Warn("freeze file", "path", path, "message", msg)
		}
	}
	return rt, nil
}

// seedInput resolves the seed source: flag, then config file, then nil for
// a fresh entropy seed.
func seedInput(seedFlag string, cfg *config.AppConfig) any {
	if seedFlag != "" {
		if n, err := strconv.ParseInt(seedFlag, 10, 64); err == nil {
			return n
		}
		return seedFlag
	}
	if cfg.Seed != nil {
		return cfg.Seed
	}
	return nil
}

// modelSeed resolves the effective seed for one model: a valid frozen seed
// wins; otherwise the derived seed is used and recorded when freezing.
func (rt *runtime) modelSeed(model *schema.ModelDef) int64 {
	qualified := model.QualifiedName()
	derived := rt.seeds.ModelSeed(qualified)
	if rt.freeze == nil {
		return derived
	}

	digest := seed.ComputeModelDigest(model)
	frozen, status := rt.freeze.ResolveSeed(qualified, digest)
	switch status {
	case seed.FreezeValid:
		return frozen
	case seed.FreezeStale:
		rt.logger.Warn("frozen seed is stale, model shape changed", "model", qualified)
	}
	rt.freeze.RecordSeed(qualified, derived, digest)
	return derived
}

// generator builds a configured instance generator for one model.
func (rt *runtime) generator(model *schema.ModelDef) (*generate.InstanceGenerator, error) {
	gc := rt.cfg.GenerationConfig()
	gc.Seed = rt.modelSeed(model)
	gc.RelationModels = rt.set.Index()
	return generate.New(gc, rt.registry)
}

// selectModels resolves the positional model arguments against the
// discovered set; no arguments selects every model.
func (rt *runtime) selectModels(names []string) ([]*schema.ModelDef, error) {
	if len(names) == 0 {
		return rt.set.Models, nil
	}
	index := rt.set.Index()
	models := make([]*schema.ModelDef, 0, len(names))
	for _, name := range names {
		model := index[name]
		if model == nil {
			return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
		}
		models = append(models, model)
	}
	return models, nil
}

// saveFreeze persists recorded seeds after a successful run.
func (rt *runtime) saveFreeze() error {
	if rt.freeze == nil {
		return nil
	}
	return rt.freeze.Save()
}
