package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

var listModelPaths []string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered models and their field summaries",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringSliceVar(&listModelPaths, "models", nil, "Model definition files or globs (required)")
	_ = listCmd.MarkFlagRequired("models")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := setupRuntime(listModelPaths, "", false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, model := range rt.set.Models {
		fmt.Fprintf(out, "%s (%s, %d fields)\n", model.QualifiedName(), model.Kind, len(model.Fields))
		for i := range model.Fields {
			field := &model.Fields[i]
			summary := schema.Summarize(field)
			fmt.Fprintf(out, "  %-20s %s\n", field.Name, describeSummary(field, summary))
		}
	}
	return nil
}

func describeSummary(field *schema.FieldDef, s schema.FieldSummary) string {
	desc := string(s.Type)
	switch {
	case len(s.EnumValues) > 0:
		desc = fmt.Sprintf("enum(%d values)", len(s.EnumValues))
	case s.Type == schema.KindModel:
		desc = "ref " + s.Ref
	case s.ItemType != "":
		desc = fmt.Sprintf("%s[%s]", s.Type, s.ItemType)
	case s.Format != "":
		desc += " (" + s.Format + ")"
	}
	if s.IsOptional {
		desc += ", optional"
	}
	if field.Relation != "" {
		desc += ", relation " + field.Relation
	}
	if !field.Constraints.Empty() {
		desc += ", constrained"
	}
	return desc
}
