// Package report implements the per-run telemetry sink that tracks
// generation attempts, successes, and failures per model field, with
// human-readable hints describing why a constraint was not satisfied.
package report

import (
	"fmt"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

// FailureCategory classifies why a candidate value was rejected.
type FailureCategory string

// Failure categories.
const (
	FailureNumericBound   FailureCategory = "numeric-bound"
	FailureStringLength   FailureCategory = "string-length"
	FailureCollectionSize FailureCategory = "collection-size"
	FailureTypeMismatch   FailureCategory = "type-mismatch"
	FailureGeneric        FailureCategory = "generic"
)

// hintFor maps a failure category to its user-facing hint.
func hintFor(cat FailureCategory) string {
	switch cat {
	case FailureNumericBound:
		return "value violates a numeric bound (ge/gt/le/lt); loosen the bound or adjust number policy"
	case FailureStringLength:
		return "value violates min/max length; adjust length constraints or the pattern"
	case FailureCollectionSize:
		return "collection size violates minItems/maxItems; adjust the array policy"
	case FailureTypeMismatch:
		return "generated value has an unexpected type; check provider registration for the field"
	default:
		return "generation failed; check field overrides and validator rules"
	}
}

const maxValueLen = 120

// Failure is one recorded rejection: the location path, the offending value
// rendered best-effort, and the hint derived from its category.
type Failure struct {
	Path  []string `json:"path"`
	Value string   `json:"value"`
	Hint  string   `json:"hint"`
}

// FieldStats aggregates one field's counters across a run.
type FieldStats struct {
	Attempts  int       `json:"attempts"`
	Successes int       `json:"successes"`
	Failures  []Failure `json:"failures,omitempty"`

	// Constraints is the snapshot captured on the first recorded attempt.
	// A reporter that only saw failures has no snapshot to contribute on
	// merge.
	Constraints   *schema.Constraints `json:"constraints,omitempty"`
	hasConstraint bool
}

// ModelStats aggregates one model's fields.
type ModelStats struct {
	Instances int                    `json:"instances"`
	Fields    map[string]*FieldStats `json:"fields"`
}

// Reporter is the mutable per-run aggregator. It is not safe for concurrent
// use; generation is single-threaded per instance.
type Reporter struct {
	models        map[string]*ModelStats
	totalModels   int
	totalFailures int
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{models: make(map[string]*ModelStats)}
}

func (r *Reporter) model(name string) *ModelStats {
	m, ok := r.models[name]
	if !ok {
		m = &ModelStats{Fields: make(map[string]*FieldStats)}
		r.models[name] = m
	}
	return m
}

func (r *Reporter) field(model, field string) *FieldStats {
	m := r.model(model)
	f, ok := m.Fields[field]
	if !ok {
		f = &FieldStats{}
		m.Fields[field] = f
	}
	return f
}

// BeginModel marks the start of one instance generation for a model.
func (r *Reporter) BeginModel(model string) {
	r.model(model)
	r.totalModels++
}

// RecordFieldAttempt records one generation attempt for a field, capturing
// the field's constraint snapshot on first sight.
func (r *Reporter) RecordFieldAttempt(model, field string, constraints schema.Constraints) {
	f := r.field(model, field)
	f.Attempts++
	if !f.hasConstraint {
		c := constraints
		f.Constraints = &c
		f.hasConstraint = true
	}
}

// RecordFieldValue records a successful field draw.
func (r *Reporter) RecordFieldValue(model, field string) {
	r.field(model, field).Successes++
}

// RecordFailure records a rejected value with its location path and failure
// category. The value is stringified best-effort and truncated.
func (r *Reporter) RecordFailure(model, field string, path []string, value any, cat FailureCategory) {
	f := r.field(model, field)
	rendered := fmt.Sprintf("%v", value)
	if len(rendered) > maxValueLen {
		rendered = rendered[:maxValueLen] + "..."
	}
	f.Failures = append(f.Failures, Failure{
		Path:  append([]string(nil), path...),
		Value: rendered,
		Hint:  hintFor(cat),
	})
	r.totalFailures++
}

// FinishModel marks the end of one instance generation.
func (r *Reporter) FinishModel(model string, ok bool) {
	if ok {
		r.model(model).Instances++
	}
}

// MergeFrom combines another reporter's entries into this one, summing
// counters. When both sides recorded the same field, the merged constraint
// snapshot prefers whichever side actually captured one.
func (r *Reporter) MergeFrom(other *Reporter) {
	if other == nil {
		return
	}
	for name, om := range other.models {
		m := r.model(name)
		m.Instances += om.Instances
		for fname, of := range om.Fields {
			f, ok := m.Fields[fname]
			if !ok {
				f = &FieldStats{}
				m.Fields[fname] = f
			}
			f.Attempts += of.Attempts
			f.Successes += of.Successes
			f.Failures = append(f.Failures, of.Failures...)
			if !f.hasConstraint && of.hasConstraint {
				c := *of.Constraints
				f.Constraints = &c
				f.hasConstraint = true
			}
		}
	}
	r.totalModels += other.totalModels
	r.totalFailures += other.totalFailures
}

// TotalModels returns the monotonic count of begun model generations.
func (r *Reporter) TotalModels() int { return r.totalModels }

// TotalFailures returns the monotonic count of recorded failures.
func (r *Reporter) TotalFailures() int { return r.totalFailures }

// Summary renders the accumulated state as a plain nested mapping. It is a
// pure read with no side effects.
func (r *Reporter) Summary() map[string]any {
	models := make(map[string]any, len(r.models))
	for name, m := range r.models {
		fields := make(map[string]any, len(m.Fields))
		for fname, f := range m.Fields {
			entry := map[string]any{
				"attempts":  f.Attempts,
				"successes": f.Successes,
			}
			if len(f.Failures) > 0 {
				failures := make([]map[string]any, 0, len(f.Failures))
				for _, fail := range f.Failures {
					failures = append(failures, map[string]any{
						"path":  fail.Path,
						"value": fail.Value,
						"hint":  fail.Hint,
					})
				}
				entry["failures"] = failures
			}
			fields[fname] = entry
		}
		models[name] = map[string]any{
			"instances": m.Instances,
			"fields":    fields,
		}
	}
	return map[string]any{
		"models":         models,
		"total_models":   r.totalModels,
		"total_failures": r.totalFailures,
	}
}
