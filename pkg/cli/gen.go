package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fixturegen/fixturegen/pkg/emit"
	"github.com/fixturegen/fixturegen/pkg/generate"
	"github.com/fixturegen/fixturegen/pkg/report"
	"github.com/fixturegen/fixturegen/pkg/schema"
)

var (
	genModelPaths []string
	genSeed       string
	genFreeze     bool

	genJSONCount       int
	genJSONOut         string
	genJSONIndent      int
	genJSONLines       bool
	genJSONShardSize   int
	genJSONSelect      string
	genJSONWithRelated bool
	genJSONReport      string

	genSchemaOut    string
	genSchemaBundle bool

	genFixturesCount   int
	genFixturesOut     string
	genFixturesPackage string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate artifacts from model definitions",
}

var genJSONCmd = &cobra.Command{
	Use:   "json [model...]",
	Short: "Generate JSON sample instances",
	Long: `Generates deterministic JSON instances for the selected models. With no
model arguments every discovered model is generated. Output goes to stdout
unless --out is given; --shard-size splits file output into numbered shards.`,
	RunE: runGenJSON,
}

var genSchemaCmd = &cobra.Command{
	Use:   "schema [model...]",
	Short: "Emit JSON Schema documents for models",
	RunE:  runGenSchema,
}

var genFixturesCmd = &cobra.Command{
	Use:   "fixtures [model...]",
	Short: "Generate Go fixture source files",
}

func init() {
	genFixturesCmd.RunE = runGenFixtures
	genCmd.PersistentFlags().StringSliceVar(&genModelPaths, "models", nil, "Model definition files or globs (required)")
	genCmd.PersistentFlags().StringVar(&genSeed, "seed", "", "Seed value (integer or string); overrides the config file")
	genCmd.PersistentFlags().BoolVar(&genFreeze, "freeze", false, "Use and update the frozen-seed file")
	_ = genCmd.MarkPersistentFlagRequired("models")

	genJSONCmd.Flags().IntVar(&genJSONCount, "count", 1, "Instances per model")
	genJSONCmd.Flags().StringVar(&genJSONOut, "out", "", "Output file (default: stdout)")
	genJSONCmd.Flags().IntVar(&genJSONIndent, "indent", 0, "Spaces per indent level (0 = compact)")
	genJSONCmd.Flags().BoolVar(&genJSONLines, "jsonl", false, "Emit one instance per line")
	genJSONCmd.Flags().IntVar(&genJSONShardSize, "shard-size", 0, "Split file output into shards of this many instances")
	genJSONCmd.Flags().StringVar(&genJSONSelect, "select", "", "JSONPath expression projected over each instance")
	genJSONCmd.Flags().BoolVar(&genJSONWithRelated, "with-related", false, "Generate relation target models first and bundle the output")
	genJSONCmd.Flags().StringVar(&genJSONReport, "report", "", "Write the constraint report to this file")

	genSchemaCmd.Flags().StringVar(&genSchemaOut, "out", "", "Output file or directory (default: stdout)")
	genSchemaCmd.Flags().BoolVar(&genSchemaBundle, "bundle", false, "Emit one combined document with $defs per model")

	genFixturesCmd.Flags().IntVar(&genFixturesCount, "count", 3, "Instances per model")
	genFixturesCmd.Flags().StringVar(&genFixturesOut, "out", "", "Output file (default: <model>_fixtures.go)")
	genFixturesCmd.Flags().StringVar(&genFixturesPackage, "package", "fixtures", "Package name for generated source")

	genCmd.AddCommand(genJSONCmd)
	genCmd.AddCommand(genSchemaCmd)
	genCmd.AddCommand(genFixturesCmd)
	rootCmd.AddCommand(genCmd)
}

func runGenJSON(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(genModelPaths, genSeed, genFreeze)
	if err != nil {
		return err
	}
	models, err := rt.selectModels(args)
	if err != nil {
		return err
	}

	opts := emit.JSONOptions{
		Indent:    genJSONIndent,
		Lines:     genJSONLines,
		ShardSize: genJSONShardSize,
		Select:    genJSONSelect,
	}
	if opts.Indent == 0 {
		opts.Indent = rt.cfg.JSON.Indent
	}
	if opts.Select == "" {
		opts.Select = rt.cfg.JSON.Select
	}
	emitter, err := emit.NewJSONEmitter(opts)
	if err != nil {
		return err
	}
	if opts.ShardSize > 0 && genJSONOut == "" {
		return ErrMissingOutputForFile
	}

	reporter := report.NewReporter()
	for _, model := range models {
		gen, err := rt.generator(model)
		if err != nil {
			return err
		}

		var payload any
		if genJSONWithRelated {
			bundle, err := generateBundle(rt, gen, model, genJSONCount)
			if err != nil {
				return err
			}
			payload = bundle
		} else {
			instances, err := gen.Generate(model, genJSONCount)
			if err != nil {
				return describeExhaustion(gen, model, err)
			}
			payload = instances
		}
		reporter.MergeFrom(gen.Reporter)

		if err := writeJSONArtifact(emitter, model, models, payload); err != nil {
			return err
		}
		rt.logger.Info("generated", "model", model.QualifiedName(), "count", genJSONCount)
	}

	if genJSONReport != "" {
		data, err := json.MarshalIndent(reporter.Summary(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := emit.WriteFileAtomic(genJSONReport, append(data, '\n')); err != nil {
			return err
		}
	}
	return rt.saveFreeze()
}

// generateBundle generates a model's relation targets first, through the
// same generator so links resolve against same-run instances, then the
// primary model. Output is keyed by model name.
func generateBundle(rt *runtime, gen *generate.InstanceGenerator, primary *schema.ModelDef, count int) (map[string]any, error) {
	bundle := make(map[string]any)
	for _, related := range relationTargets(rt, primary) {
		instances, err := gen.Generate(related, count)
		if err != nil {
			return nil, describeExhaustion(gen, related, err)
		}
		bundle[related.Name] = instances
	}
	instances, err := gen.Generate(primary, count)
	if err != nil {
		return nil, describeExhaustion(gen, primary, err)
	}
	bundle[primary.Name] = instances
	return bundle, nil
}

// relationTargets lists the models a primary model links to, in field order.
func relationTargets(rt *runtime, primary *schema.ModelDef) []*schema.ModelDef {
	index := rt.set.Index()
	seen := map[string]bool{primary.QualifiedName(): true}
	var targets []*schema.ModelDef

	addTarget := func(link string) {
		dot := strings.LastIndex(link, ".")
		if dot <= 0 {
			return
		}
		target := index[link[:dot]]
		if target == nil || seen[target.QualifiedName()] {
			return
		}
		seen[target.QualifiedName()] = true
		targets = append(targets, target)
	}

	for i := range primary.Fields {
		if rel := primary.Fields[i].Relation; rel != "" {
			addTarget(rel)
		}
	}
	for from, to := range rt.cfg.Relations {
		if strings.HasPrefix(from, primary.Name+".") || strings.HasPrefix(from, primary.QualifiedName()+".") {
			addTarget(to)
		}
	}
	return targets
}

func writeJSONArtifact(emitter *emit.JSONEmitter, model *schema.ModelDef, models []*schema.ModelDef, payload any) error {
	instances, isSlice := payload.([]map[string]any)

	if genJSONOut == "" {
		if isSlice {
			return emitter.EmitTo(os.Stdout, instances)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}

	path := genJSONOut
	if len(models) > 1 {
		path = perModelPath(path, model.Name)
	}
	if isSlice {
		_, err := emitter.EmitFile(path, instances)
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return emit.WriteFileAtomic(path, append(data, '\n'))
}

// perModelPath derives a per-model file name when several models share one
// --out value.
func perModelPath(path, modelName string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + strings.ToLower(modelName) + ext
}

// describeExhaustion turns a generation shortfall into an actionable error
// with the last validator failure attached.
func describeExhaustion(gen *generate.InstanceGenerator, model *schema.ModelDef, err error) error {
	if gen.LastFailure != nil {
		return fmt.Errorf("%w: model %s: rule %q failed (fields %v): %v",
			ErrGenerationExhausted, model.QualifiedName(), gen.LastFailure.Rule, gen.LastFailure.Fields, err)
	}
	return err
}

func runGenSchema(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(genModelPaths, genSeed, false)
	if err != nil {
		return err
	}
	models, err := rt.selectModels(args)
	if err != nil {
		return err
	}
	index := rt.set.Index()

	if genSchemaBundle {
		data, err := emit.EncodeSchema(emit.BuildBundle(models))
		if err != nil {
			return err
		}
		return writeSchemaOutput(genSchemaOut, "schemas.json", data)
	}

	for _, model := range models {
		data, err := emit.EncodeSchema(emit.BuildModelSchema(model, index))
		if err != nil {
			return fmt.Errorf("model %s: %w", model.QualifiedName(), err)
		}
		name := strings.ToLower(model.Name) + ".schema.json"
		if err := writeSchemaOutput(genSchemaOut, name, data); err != nil {
			return err
		}
	}
	return nil
}

func writeSchemaOutput(out, defaultName string, data []byte) error {
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	info, err := os.Stat(out)
	if err == nil && info.IsDir() {
		return emit.WriteFileAtomic(filepath.Join(out, defaultName), data)
	}
	return emit.WriteFileAtomic(out, data)
}

func runGenFixtures(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(genModelPaths, genSeed, genFreeze)
	if err != nil {
		return err
	}
	models, err := rt.selectModels(args)
	if err != nil {
		return err
	}

	pkgName := genFixturesPackage
	if rt.cfg.Fixtures.Package != "" && !cmdFlagChanged(genFixturesCmd, "package") {
		pkgName = rt.cfg.Fixtures.Package
	}

	for _, model := range models {
		gen, err := rt.generator(model)
		if err != nil {
			return err
		}
		instances, err := gen.Generate(model, genFixturesCount)
		if err != nil {
			return describeExhaustion(gen, model, err)
		}

		data, err := emit.EmitGoFixtures(pkgName, model, instances)
		if err != nil {
			return err
		}
		path := genFixturesOut
		if path == "" {
			path = strings.ToLower(model.Name) + "_fixtures.go"
		} else if len(models) > 1 {
			path = perModelPath(path, model.Name)
		}
		if err := emit.WriteFileAtomic(path, data); err != nil {
			return err
		}
		rt.logger.Info("wrote fixtures", "model", model.QualifiedName(), "path", path)
	}
	return rt.saveFreeze()
}

func cmdFlagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}
