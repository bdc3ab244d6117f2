package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixturegen/fixturegen/pkg/schema"
)

func TestReporter_Counters(t *testing.T) {
	r := NewReporter()

	r.BeginModel("shop.Order")
	r.RecordFieldAttempt("shop.Order", "total", schema.Constraints{})
	r.RecordFieldValue("shop.Order", "total")
	r.FinishModel("shop.Order", true)

	r.BeginModel("shop.Order")
	r.RecordFieldAttempt("shop.Order", "total", schema.Constraints{})
	r.RecordFailure("shop.Order", "total", []string{"shop.Order", "total"}, -5, FailureNumericBound)
	r.FinishModel("shop.Order", false)

	assert.Equal(t, 2, r.TotalModels())
	assert.Equal(t, 1, r.TotalFailures())

	summary := r.Summary()
	assert.Equal(t, 2, summary["total_models"])
	assert.Equal(t, 1, summary["total_failures"])

	models := summary["models"].(map[string]any)
	order := models["shop.Order"].(map[string]any)
	assert.Equal(t, 1, order["instances"])

	fields := order["fields"].(map[string]any)
	total := fields["total"].(map[string]any)
	assert.Equal(t, 2, total["attempts"])
	assert.Equal(t, 1, total["successes"])

	failures := total["failures"].([]map[string]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "-5", failures[0]["value"])
	assert.Contains(t, failures[0]["hint"], "numeric bound")
}

func TestReporter_ConstraintSnapshotOnFirstAttempt(t *testing.T) {
	ge := 1.0
	r := NewReporter()
	r.RecordFieldAttempt("m.M", "f", schema.Constraints{Ge: &ge})

	changed := 99.0
	r.RecordFieldAttempt("m.M", "f", schema.Constraints{Ge: &changed})

	stats := r.models["m.M"].Fields["f"]
	require.NotNil(t, stats.Constraints)
	assert.Equal(t, 1.0, *stats.Constraints.Ge, "first-sight snapshot must win")
}

func TestReporter_ValueTruncation(t *testing.T) {
	r := NewReporter()
	long := strings.Repeat("x", 500)
	r.RecordFailure("m.M", "f", []string{"m.M", "f"}, long, FailureStringLength)

	failure := r.models["m.M"].Fields["f"].Failures[0]
	assert.Len(t, failure.Value, maxValueLen+3)
	assert.True(t, strings.HasSuffix(failure.Value, "..."))
}

func TestReporter_MergeSumsCounters(t *testing.T) {
	ge := 2.0

	a := NewReporter()
	a.BeginModel("m.M")
	a.RecordFieldAttempt("m.M", "f", schema.Constraints{Ge: &ge})
	a.RecordFieldValue("m.M", "f")
	a.FinishModel("m.M", true)

	b := NewReporter()
	b.BeginModel("m.M")
	b.RecordFieldAttempt("m.M", "f", schema.Constraints{Ge: &ge})
	b.RecordFailure("m.M", "f", []string{"m.M", "f"}, 0, FailureNumericBound)
	b.FinishModel("m.M", false)

	a.MergeFrom(b)

	assert.Equal(t, 2, a.TotalModels())
	assert.Equal(t, 1, a.TotalFailures())
	stats := a.models["m.M"].Fields["f"]
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, 1, stats.Successes)
	assert.Len(t, stats.Failures, 1)
}

func TestReporter_MergeOrderInsensitiveTotals(t *testing.T) {
	build := func(failures int) *Reporter {
		r := NewReporter()
		r.BeginModel("m.M")
		for i := 0; i < failures; i++ {
			r.RecordFailure("m.M", "f", []string{"m.M", "f"}, i, FailureGeneric)
		}
		r.FinishModel("m.M", failures == 0)
		return r
	}

	left := build(1)
	left.MergeFrom(build(2))
	left.MergeFrom(build(3))

	right := build(3)
	right.MergeFrom(build(2))
	right.MergeFrom(build(1))

	assert.Equal(t, left.TotalModels(), right.TotalModels())
	assert.Equal(t, left.TotalFailures(), right.TotalFailures())
	assert.Equal(t, left.models["m.M"].Fields["f"].Attempts, right.models["m.M"].Fields["f"].Attempts)
}

func TestReporter_MergePrefersCapturedSnapshot(t *testing.T) {
	ge := 5.0

	// Left side saw only failures, no attempt snapshot.
	left := NewReporter()
	left.RecordFailure("m.M", "f", []string{"m.M", "f"}, 0, FailureGeneric)

	right := NewReporter()
	right.RecordFieldAttempt("m.M", "f", schema.Constraints{Ge: &ge})

	left.MergeFrom(right)

	stats := left.models["m.M"].Fields["f"]
	require.NotNil(t, stats.Constraints)
	assert.Equal(t, 5.0, *stats.Constraints.Ge)
}

func TestReporter_SummaryIsPure(t *testing.T) {
	r := NewReporter()
	r.BeginModel("m.M")
	first := r.Summary()
	second := r.Summary()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.TotalModels(), "Summary must not mutate state")
}
