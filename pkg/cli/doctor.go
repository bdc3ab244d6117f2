package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fixturegen/fixturegen/pkg/discovery"
	"github.com/fixturegen/fixturegen/pkg/generate"
)

var doctorModelPaths []string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check model definitions for problems a generation run would hit",
	Long: `Inspects the discovered models for opaque field types, unresolvable
references and relation targets, reference cycles, and malformed field policy
patterns. Exits non-zero when errors are found.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringSliceVar(&doctorModelPaths, "models", nil, "Model definition files or globs (required)")
	_ = doctorCmd.MarkFlagRequired("models")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(doctorModelPaths, "", false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	diags := discovery.Inspect(rt.set)

	// Field policy patterns are validated the same way the generator does
	// at startup, so problems surface here instead of mid-run.
	gc := rt.cfg.GenerationConfig()
	if _, err := generate.New(gc, rt.registry); err != nil {
		diags = append(diags, discovery.Diagnostic{
			Severity: discovery.SeverityError,
			Model:    "<config>",
			Message:  err.Error(),
		})
	}

	errorCount := 0
	for _, diag := range diags {
		fmt.Fprintln(out, diag.String())
		if diag.Severity == discovery.SeverityError {
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrDiagnosticsFailed, errorCount)
	}
	fmt.Fprintf(out, "%d model(s) checked, %d warning(s)\n", len(rt.set.Models), len(diags))
	return nil
}
