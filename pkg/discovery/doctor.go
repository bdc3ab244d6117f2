package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// Severity levels for inspection diagnostics.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic is one finding from an inspection pass.
type Diagnostic struct {
	Severity string `json:"severity"`
	Model    string `json:"model"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Field != "" {
		return fmt.Sprintf("%s: %s.%s: %s", d.Severity, d.Model, d.Field, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Model, d.Message)
}

// Inspect examines a discovered model set for conditions a generation run
// would degrade on: opaque field types, unresolvable model references and
// relation targets, and reference cycles. Cycles are warnings because the
// generator breaks them with null fallbacks; dangling references are errors.
func Inspect(set *Set) []Diagnostic {
	index := set.Index()
	var diags []Diagnostic

	for _, model := range set.Models {
		qualified := model.QualifiedName()
		for i := range model.Fields {
			field := &model.Fields[i]
			summary := schema.Summarize(field)

			if summary.Type == schema.KindAny {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Model:    qualified,
					Field:    field.Name,
					Message:  "field summarizes to an opaque type and will generate null",
				})
			}

			if summary.Ref != "" && index[summary.Ref] == nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Model:    qualified,
					Field:    field.Name,
					Message:  fmt.Sprintf("references unknown model %q", summary.Ref),
				})
			}

			if field.Relation != "" {
				diags = append(diags, inspectRelation(index, qualified, field)...)
			}
		}
	}

	diags = append(diags, findCycles(set, index)...)

	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Model != diags[j].Model {
			return diags[i].Model < diags[j].Model
		}
		return diags[i].Field < diags[j].Field
	})
	return diags
}

func inspectRelation(index map[string]*schema.ModelDef, qualified string, field *schema.FieldDef) []Diagnostic {
	dot := strings.LastIndex(field.Relation, ".")
	targetModel := field.Relation[:dot]
	targetField := field.Relation[dot+1:]

	target := index[targetModel]
	if target == nil {
		return []Diagnostic{{
			Severity: SeverityError,
			Model:    qualified,
			Field:    field.Name,
			Message:  fmt.Sprintf("relation target model %q not found", targetModel),
		}}
	}
	if target.Field(targetField) == nil {
		return []Diagnostic{{
			Severity: SeverityError,
			Model:    qualified,
			Field:    field.Name,
			Message:  fmt.Sprintf("relation target %q has no field %q", targetModel, targetField),
		}}
	}
	return nil
}

// findCycles reports each model participating in a reference cycle once.
func findCycles(set *Set, index map[string]*schema.ModelDef) []Diagnostic {
	var diags []Diagnostic
	reported := make(map[string]bool)

	var visit func(model *schema.ModelDef, stack map[string]bool) bool
	visit = func(model *schema.ModelDef, stack map[string]bool) bool {
		qualified := model.QualifiedName()
		if stack[qualified] {
			return true
		}
		stack[qualified] = true
		defer delete(stack, qualified)

		cyclic := false
		for i := range model.Fields {
			summary := schema.Summarize(&model.Fields[i])
			if summary.Ref == "" {
				continue
			}
			next := index[summary.Ref]
			if next == nil {
				continue
			}
			if visit(next, stack) {
				cyclic = true
			}
		}
		return cyclic
	}

	for _, model := range set.Models {
		qualified := model.QualifiedName()
		if reported[qualified] {
			continue
		}
		if visit(model, map[string]bool{}) {
			reported[qualified] = true
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Model:    qualified,
				Message:  "participates in a reference cycle; recursion breaks with null fallbacks",
			})
		}
	}
	return diags
}
