package generate

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	mathrand "math/rand/v2"

	"github.com/fixturegen/fixturegen/pkg/provider"
	"github.com/fixturegen/fixturegen/pkg/report"
	"github.com/fixturegen/fixturegen/pkg/schema"
	"github.com/fixturegen/fixturegen/pkg/strategy"
)

// InstanceGenerator produces instances of structured models under one
// GenerationConfig. It owns its pseudo-random stream exclusively; sharing a
// generator across goroutines breaks reproducibility and must never occur.
type InstanceGenerator struct {
	cfg      GenerationConfig
	rng      *mathrand.Rand
	registry *provider.Registry
	builder  *strategy.Builder

	overrides  []compiledOverride
	strategies map[string]map[string]strategy.Result
	validators map[string]*validatorSet

	// relationValues records field values of completed instances under
	// "Model.field" and "module.Model.field" keys for relation resolution.
	relationValues map[string]any
	resolving      map[string]bool

	// Reporter accumulates constraint-satisfaction telemetry for the run.
	Reporter *report.Reporter

	// LastFailure holds the final validator rejection when GenerateOne
	// exhausts its retry budget.
	LastFailure *ValidatorFailure
}

// New creates a generator for a config and provider registry. Configuration
// errors (malformed override patterns, uncompilable validator rules, missing
// providers) surface here or on first use of the offending model, always
// before any value is emitted for it.
func New(cfg GenerationConfig, registry *provider.Registry) (*InstanceGenerator, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if cfg.EnumPolicy == "" {
		cfg.EnumPolicy = strategy.PolicyFirst
	}
	if cfg.UnionPolicy == "" {
		cfg.UnionPolicy = strategy.PolicyFirst
	}
	if cfg.ValidatorMaxRetries <= 0 {
		cfg.ValidatorMaxRetries = DefaultValidatorMaxRetries
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Numbers == (provider.NumberPolicy{}) {
		cfg.Numbers = provider.DefaultNumberPolicy()
	}
	if cfg.Arrays == (provider.ArrayPolicy{}) {
		cfg.Arrays = provider.DefaultArrayPolicy()
	}

	overrides, err := compileOverrides(cfg.FieldPolicies)
	if err != nil {
		return nil, err
	}

	builder := strategy.NewBuilder(registry)
	builder.EnumPolicy = cfg.EnumPolicy
	builder.UnionPolicy = cfg.UnionPolicy
	builder.DefaultPNone = cfg.DefaultPNone
	builder.OptionalPNone = cfg.OptionalPNone

	return &InstanceGenerator{
		cfg:            cfg,
		rng:            mathrand.New(mathrand.NewPCG(uint64(cfg.Seed), 0)),
		registry:       registry,
		builder:        builder,
		overrides:      overrides,
		strategies:     make(map[string]map[string]strategy.Result),
		validators:     make(map[string]*validatorSet),
		relationValues: make(map[string]any),
		resolving:      make(map[string]bool),
		Reporter:       report.NewReporter(),
	}, nil
}

// Config returns the generator's policy bundle.
func (g *InstanceGenerator) Config() GenerationConfig { return g.cfg }

// GenerateOne builds exactly one instance of a model. It returns (nil, nil)
// when generation exhausts the validator retry budget — the caller turns
// that into a user-facing mapping error with LastFailure and the reporter
// summary. Errors are configuration problems and are never retried.
func (g *InstanceGenerator) GenerateOne(model *schema.ModelDef) (map[string]any, error) {
	qualified := model.QualifiedName()

	validators, err := g.modelValidators(model)
	if err != nil {
		return nil, err
	}

	attempts := 1
	if g.cfg.RespectValidators && len(model.Rules) > 0 {
		attempts = g.cfg.ValidatorMaxRetries
	}

	for attempt := 0; attempt < attempts; attempt++ {
		g.Reporter.BeginModel(qualified)

		instance, err := g.generateModel(model, []string{qualified}, map[string]bool{qualified: true}, 0)
		if err != nil {
			return nil, err
		}

		if !g.cfg.RespectValidators || len(model.Rules) == 0 {
			g.finishInstance(model, instance)
			return instance, nil
		}

		failure := validators.validate(model, instance)
		if failure == nil {
			g.finishInstance(model, instance)
			return instance, nil
		}

		g.LastFailure = failure
		g.recordValidatorFailure(model, instance, failure)
	}

	g.Reporter.FinishModel(qualified, false)
	return nil, nil
}

// Generate invokes GenerateOne count times. A nil result aborts with a
// count-mismatch error; fewer instances than requested is fatal for fixture
// and dataset callers.
func (g *InstanceGenerator) Generate(model *schema.ModelDef, count int) ([]map[string]any, error) {
	instances := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		instance, err := g.GenerateOne(model)
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, fmt.Errorf("generated %d of %d instances for %s: validator retry budget exhausted",
				i, count, model.QualifiedName())
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// finishInstance records success telemetry and publishes field values for
// relation lookups.
func (g *InstanceGenerator) finishInstance(model *schema.ModelDef, instance map[string]any) {
	qualified := model.QualifiedName()
	g.Reporter.FinishModel(qualified, true)
	for name, value := range instance {
		g.relationValues[model.Name+"."+name] = value
		g.relationValues[qualified+"."+name] = value
	}
}

func (g *InstanceGenerator) recordValidatorFailure(model *schema.ModelDef, instance map[string]any, failure *ValidatorFailure) {
	qualified := model.QualifiedName()
	category := report.FailureGeneric
	switch classifyRuleFailure(failure.Rule) {
	case "numeric":
		category = report.FailureNumericBound
	case "length":
		category = report.FailureStringLength
	}

	fields := failure.Fields
	if len(fields) == 0 {
		fields = []string{"<instance>"}
	}
	for _, field := range fields {
		g.Reporter.RecordFailure(qualified, field, []string{qualified, field}, instance[field], category)
	}
}

// modelStrategies resolves and caches one model's field strategies. The
// cache is scoped to this generator instance, never shared across configs.
func (g *InstanceGenerator) modelStrategies(model *schema.ModelDef) (map[string]strategy.Result, error) {
	qualified := model.QualifiedName()
	if cached, ok := g.strategies[qualified]; ok {
		return cached, nil
	}
	built, err := g.builder.BuildModelStrategies(model)
	if err != nil {
		return nil, err
	}
	g.strategies[qualified] = built
	return built, nil
}

func (g *InstanceGenerator) modelValidators(model *schema.ModelDef) (*validatorSet, error) {
	qualified := model.QualifiedName()
	if cached, ok := g.validators[qualified]; ok {
		return cached, nil
	}
	set, err := compileValidators(model)
	if err != nil {
		return nil, err
	}
	g.validators[qualified] = set
	return set, nil
}

// generateModel walks a model's fields in declared order. Field order
// matters: pseudo-random draws are consumed in order, and reordering breaks
// determinism across versions.
func (g *InstanceGenerator) generateModel(model *schema.ModelDef, path []string, visiting map[string]bool, depth int) (map[string]any, error) {
	qualified := model.QualifiedName()

	strategies, err := g.modelStrategies(model)
	if err != nil {
		return nil, err
	}

	instance := make(map[string]any, len(model.Fields))
	for i := range model.Fields {
		field := &model.Fields[i]
		fieldPath := qualified + "." + field.Name

		// Relation resolution takes precedence over provider generation.
		if target := g.relationTarget(model, field); target != "" {
			value, err := g.resolveRelation(target, field.Name, qualified)
			if err != nil {
				return nil, err
			}
			g.Reporter.RecordFieldAttempt(qualified, field.Name, field.Constraints)
			instance[field.Name] = value
			g.Reporter.RecordFieldValue(qualified, field.Name)
			continue
		}

		override := resolveOverride(g.overrides, fieldPath)
		if override == nil {
			// Bare-name paths let "Model.field" patterns match without the
			// module prefix.
			override = resolveOverride(g.overrides, model.Name+"."+field.Name)
		}
		if override != nil && override.Skip {
			continue
		}

		g.Reporter.RecordFieldAttempt(qualified, field.Name, field.Constraints)

		if override != nil && override.Pin {
			instance[field.Name] = override.Value
			g.Reporter.RecordFieldValue(qualified, field.Name)
			continue
		}

		result, ok := strategies[field.Name]
		if !ok {
			return nil, fmt.Errorf("model %s: no strategy for field %q", qualified, field.Name)
		}

		pNone := strategyPNone(result)
		if override != nil && override.PNone != nil {
			pNone = *override.PNone
		}
		if pNone >= 1.0 || (pNone > 0 && g.rng.Float64() < pNone) {
			instance[field.Name] = nil
			g.Reporter.RecordFieldValue(qualified, field.Name)
			continue
		}

		value, err := g.generateField(field, result, override, append(path, field.Name), visiting, depth)
		if err != nil {
			return nil, err
		}

		if cat := checkConstraints(value, field.Constraints); cat != "" {
			g.Reporter.RecordFailure(qualified, field.Name, append(path, field.Name), value, cat)
		}

		instance[field.Name] = value
		g.Reporter.RecordFieldValue(qualified, field.Name)
	}
	return instance, nil
}

func strategyPNone(result strategy.Result) float64 {
	switch s := result.(type) {
	case *strategy.Strategy:
		return s.PNone
	case *strategy.UnionStrategy:
		return s.PNone
	}
	return 0
}

// generateField produces one field value per its resolved strategy.
func (g *InstanceGenerator) generateField(field *schema.FieldDef, result strategy.Result, override *FieldPolicy, path []string, visiting map[string]bool, depth int) (any, error) {
	switch s := result.(type) {
	case *strategy.UnionStrategy:
		branch := g.pickUnionBranch(s)
		return g.generateSingle(field, branch, override, path, visiting, depth)
	case *strategy.Strategy:
		return g.generateSingle(field, s, override, path, visiting, depth)
	}
	return nil, fmt.Errorf("field %q: unknown strategy result", field.Name)
}

// pickUnionBranch selects a union branch: "first" is deterministic
// regardless of seed; "random" draws uniformly; "weighted" biases earlier
// branches with geometrically decreasing weights.
func (g *InstanceGenerator) pickUnionBranch(s *strategy.UnionStrategy) *strategy.Strategy {
	switch s.Policy {
	case strategy.PolicyRandom:
		return s.Choices[g.rng.IntN(len(s.Choices))]
	case strategy.PolicyWeighted:
		total := 0
		weights := make([]int, len(s.Choices))
		// Cap the initial weight so the shift cannot overflow on very
		// wide unions; trailing branches then share weight 1.
		w := 1 << uint(min(len(s.Choices), 30))
		for i := range s.Choices {
			weights[i] = w
			total += w
			if w > 1 {
				w /= 2
			}
		}
		pick := g.rng.IntN(total)
		for i, weight := range weights {
			if pick < weight {
				return s.Choices[i]
			}
			pick -= weight
		}
		return s.Choices[0]
	default:
		return s.Choices[0]
	}
}

func (g *InstanceGenerator) generateSingle(field *schema.FieldDef, s *strategy.Strategy, override *FieldPolicy, path []string, visiting map[string]bool, depth int) (any, error) {
	// Enum resolution: "first" always yields the first declared value,
	// independent of the seed, for snapshot stability.
	if s.ProviderName == strategy.EnumProviderName {
		if s.EnumPolicy == strategy.PolicyFirst {
			return s.EnumValues[0], nil
		}
		return s.EnumValues[g.rng.IntN(len(s.EnumValues))], nil
	}

	summary := s.Summary

	switch summary.Type {
	case schema.KindModel:
		return g.generateNested(field.Name, summary.Ref, path, visiting, depth)
	case schema.KindList, schema.KindSet, schema.KindDict:
		return g.generateCollection(field, summary, path, visiting, depth)
	case schema.KindAny:
		// Opaque type: the summarizer flagged the gap; emit null rather
		// than failing mid-instance.
		return nil, nil
	}

	ref := s.Provider
	if override != nil && override.Provider != "" {
		redirected := g.providerByName(override.Provider)
		if redirected == nil {
			return nil, fmt.Errorf("field %q: override provider %q is not registered", field.Name, override.Provider)
		}
		ref = redirected
	}
	if ref == nil {
		return nil, fmt.Errorf("%w for field %q with type %q", strategy.ErrNoProvider, field.Name, summary.Type)
	}

	return ref.Func(g.providerRequest(summary))
}

func (g *InstanceGenerator) providerRequest(summary schema.FieldSummary) *provider.Request {
	return &provider.Request{
		Summary:     summary,
		Rand:        g.rng,
		TimeAnchor:  g.cfg.TimeAnchor,
		Locale:      g.cfg.Locale,
		Numbers:     g.cfg.Numbers,
		Identifiers: g.cfg.Identifiers,
		Paths:       g.cfg.Paths,
	}
}

func (g *InstanceGenerator) providerByName(name string) *provider.Ref {
	for _, ref := range g.registry.Available() {
		if ref.Name == name {
			return ref
		}
	}
	return nil
}

// generateNested recurses into a nested model. A model already on the
// current recursion branch, or recursion past MaxDepth, falls back to null
// instead of recursing forever.
func (g *InstanceGenerator) generateNested(fieldName, ref string, path []string, visiting map[string]bool, depth int) (any, error) {
	nested := g.lookupModel(ref)
	if nested == nil {
		return nil, fmt.Errorf("field %q references unknown model %q", fieldName, ref)
	}
	qualified := nested.QualifiedName()
	if visiting[qualified] || depth+1 >= g.cfg.MaxDepth {
		return nil, nil
	}
	visiting[qualified] = true
	defer delete(visiting, qualified)

	return g.generateModel(nested, append(path, qualified), visiting, depth+1)
}

// generateCollection produces list, set, and dict values. Set semantics
// dedupe by rendered value with a bounded number of extra draws.
func (g *InstanceGenerator) generateCollection(field *schema.FieldDef, summary schema.FieldSummary, path []string, visiting map[string]bool, depth int) (any, error) {
	c := summary.Constraints

	lo := g.cfg.Arrays.MinItems
	hi := g.cfg.Arrays.MaxItems
	if c.MinItems != nil {
		lo = *c.MinItems
	}
	if c.MaxItems != nil {
		hi = *c.MaxItems
	}
	if lo < 0 {
		lo = 0
	}
	if lo > hi {
		lo = hi
	}
	n := lo
	if hi > lo {
		n = lo + g.rng.IntN(hi-lo+1)
	}

	item := summary.Item
	if item == nil {
		item = &schema.Annotation{Type: schema.KindString}
	}
	itemResult, err := g.builder.BuildFieldStrategy(field.Name+"[]", item, schema.SummarizeAnnotation(item))
	if err != nil {
		return nil, err
	}

	generateItem := func(i int) (any, error) {
		return g.generateField(field, itemResult, nil, append(path, fmt.Sprintf("%d", i)), visiting, depth)
	}

	switch summary.Type {
	case schema.KindDict:
		words := make(map[string]any, n)
		for i := 0; i < n; i++ {
			value, err := generateItem(i)
			if err != nil {
				return nil, err
			}
			words[fmt.Sprintf("key_%d", i)] = value
		}
		return words, nil

	case schema.KindSet:
		seen := make(map[string]bool, n)
		items := make([]any, 0, n)
		extra := 0
		for len(items) < n && extra < n*4 {
			value, err := generateItem(len(items))
			if err != nil {
				return nil, err
			}
			key := fmt.Sprintf("%v", value)
			if seen[key] {
				extra++
				continue
			}
			seen[key] = true
			items = append(items, value)
		}
		return items, nil

	default:
		items := make([]any, n)
		for i := 0; i < n; i++ {
			value, err := generateItem(i)
			if err != nil {
				return nil, err
			}
			items[i] = value
		}
		return items, nil
	}
}

// relationTarget returns the relation link for a field, if any: the field's
// own declaration wins, then config relations under the qualified and bare
// paths.
func (g *InstanceGenerator) relationTarget(model *schema.ModelDef, field *schema.FieldDef) string {
	if field.Relation != "" {
		return field.Relation
	}
	if g.cfg.Relations == nil {
		return ""
	}
	if target, ok := g.cfg.Relations[model.QualifiedName()+"."+field.Name]; ok {
		return target
	}
	if target, ok := g.cfg.Relations[model.Name+"."+field.Name]; ok {
		return target
	}
	return ""
}

// resolveRelation resolves a "Model.field" link against already-generated
// values, generating the target model on demand when it has not been seen
// in this run yet.
func (g *InstanceGenerator) resolveRelation(target, fieldName, fromModel string) (any, error) {
	if value, ok := g.relationValues[target]; ok {
		return value, nil
	}

	dot := strings.LastIndex(target, ".")
	if dot <= 0 {
		return nil, fmt.Errorf("field %q: malformed relation target %q", fieldName, target)
	}
	modelName := target[:dot]

	if g.resolving[modelName] {
		return nil, fmt.Errorf("relation cycle detected resolving %q from %s", target, fromModel)
	}

	targetModel := g.lookupModel(modelName)
	if targetModel == nil {
		return nil, fmt.Errorf("field %q: relation target model %q not found", fieldName, modelName)
	}

	g.resolving[modelName] = true
	defer delete(g.resolving, modelName)

	instance, err := g.GenerateOne(targetModel)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("relation target %s could not be generated", targetModel.QualifiedName())
	}

	if value, ok := g.relationValues[target]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("relation target %q has no such field", target)
}

func (g *InstanceGenerator) lookupModel(name string) *schema.ModelDef {
	if g.cfg.RelationModels == nil {
		return nil
	}
	return g.cfg.RelationModels[name]
}

// checkConstraints verifies a generated value against its declared bounds,
// returning a failure category for telemetry, or "" when satisfied.
func checkConstraints(value any, c schema.Constraints) report.FailureCategory {
	if value == nil || c.Empty() {
		return ""
	}

	if num, ok := numericValue(value); ok {
		if c.Ge != nil && num < *c.Ge {
			return report.FailureNumericBound
		}
		if c.Gt != nil && num <= *c.Gt {
			return report.FailureNumericBound
		}
		if c.Le != nil && num > *c.Le {
			return report.FailureNumericBound
		}
		if c.Lt != nil && num >= *c.Lt {
			return report.FailureNumericBound
		}
		return ""
	}

	switch v := value.(type) {
	case string:
		// Length bounds count runes, matching the string providers.
		if c.MinLength != nil && utf8.RuneCountInString(v) < *c.MinLength {
			return report.FailureStringLength
		}
		if c.MaxLength != nil && utf8.RuneCountInString(v) > *c.MaxLength {
			return report.FailureStringLength
		}
	case []any:
		if c.MinItems != nil && len(v) < *c.MinItems {
			return report.FailureCollectionSize
		}
		if c.MaxItems != nil && len(v) > *c.MaxItems {
			return report.FailureCollectionSize
		}
	case map[string]any:
		if c.MinItems != nil && len(v) < *c.MinItems {
			return report.FailureCollectionSize
		}
		if c.MaxItems != nil && len(v) > *c.MaxItems {
			return report.FailureCollectionSize
		}
	}
	return ""
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
