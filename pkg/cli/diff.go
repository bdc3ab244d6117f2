package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
)

var (
	diffModelPaths []string
	diffSeed       string
	diffFreeze     bool
	diffAgainst    string
)

var diffCmd = &cobra.Command{
	Use:   "diff <model>",
	Short: "Compare freshly generated instances against an existing artifact",
	Long: `Regenerates instances for one model with the current configuration and seed
and compares them against a previously emitted JSON or JSONL artifact. Equal
seeds and configurations must reproduce the artifact exactly; any divergence
means the model, configuration, or seed changed since it was written.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringSliceVar(&diffModelPaths, "models", nil, "Model definition files or globs (required)")
	diffCmd.Flags().StringVar(&diffSeed, "seed", "", "Seed value (integer or string); overrides the config file")
	diffCmd.Flags().BoolVar(&diffFreeze, "freeze", false, "Resolve seeds through the frozen-seed file")
	diffCmd.Flags().StringVar(&diffAgainst, "against", "", "Artifact file to compare with (required)")
	_ = diffCmd.MarkFlagRequired("models")
	_ = diffCmd.MarkFlagRequired("against")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(diffModelPaths, diffSeed, diffFreeze)
	if err != nil {
		return err
	}
	models, err := rt.selectModels(args)
	if err != nil {
		return err
	}
	model := models[0]

	want, err := readArtifact(diffAgainst)
	if err != nil {
		return err
	}
	if len(want) == 0 {
		return fmt.Errorf("artifact %s holds no instances", diffAgainst)
	}

	gen, err := rt.generator(model)
	if err != nil {
		return err
	}
	instances, err := gen.Generate(model, len(want))
	if err != nil {
		return describeExhaustion(gen, model, err)
	}
	got, err := canonicalInstances(instances)
	if err != nil {
		return err
	}

	diverged := diffInstances(want, got)
	out := cmd.OutOrStdout()
	if len(diverged) == 0 {
		fmt.Fprintf(out, "%s: %d instances match %s\n", model.QualifiedName(), len(want), diffAgainst)
		return nil
	}

	const maxShown = 10
	for i, idx := range diverged {
		if i == maxShown {
			fmt.Fprintf(out, "  ... and %d more\n", len(diverged)-maxShown)
			break
		}
		fmt.Fprintf(out, "  instance %d differs\n", idx)
	}
	return fmt.Errorf("%w: %s: %d of %d instances differ",
		ErrArtifactDiverged, model.QualifiedName(), len(diverged), len(want))
}

// readArtifact loads a JSON array or JSONL artifact into comparable values.
// Numbers decode as json.Number so decimal renderings compare exactly.
func readArtifact(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var instances []any
		if err := decodeJSON(trimmed, &instances); err != nil {
			return nil, fmt.Errorf("parsing artifact %s: %w", path, err)
		}
		return instances, nil
	}

	var instances []any
	for i, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var instance any
		if err := decodeJSON([]byte(line), &instance); err != nil {
			return nil, fmt.Errorf("parsing artifact %s line %d: %w", path, i+1, err)
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// canonicalInstances round-trips generated instances through JSON so they
// compare field for field against a decoded artifact.
func canonicalInstances(instances []map[string]any) ([]any, error) {
	raw, err := json.Marshal(instances)
	if err != nil {
		return nil, fmt.Errorf("encode instances: %w", err)
	}
	var out []any
	if err := decodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("reparse instances: %w", err)
	}
	return out, nil
}

func decodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

// diffInstances returns the indices where the artifact and the regenerated
// instances disagree, including indices past the shorter slice.
func diffInstances(want, got []any) []int {
	n := len(want)
	if len(got) > n {
		n = len(got)
	}
	var diverged []int
	for i := 0; i < n; i++ {
		if i >= len(want) || i >= len(got) || !reflect.DeepEqual(want[i], got[i]) {
			diverged = append(diverged, i)
		}
	}
	return diverged
}
