package completion

import (
	"testing"

	"github.com/embench/evalcore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEmitsNewCompletionsOnly(t *testing.T) {
	tr := New(nil, "scn_001", 1)

	first := tr.Observe(map[int]bool{1: true, 2: false}, 1)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].SubtaskIndex)
	assert.Equal(t, 1, first[0].CompletedAt)

	second := tr.Observe(map[int]bool{1: true, 2: true}, 2)
	require.Len(t, second, 1)
	assert.Equal(t, 2, second[0].SubtaskIndex)
	assert.Equal(t, 2, second[0].CompletedAt)

	// Re-observing the same satisfied set emits nothing new.
	third := tr.Observe(map[int]bool{1: true, 2: true}, 3)
	assert.Empty(t, third)
}

func TestObserveIsMonotonicAndLogsAnomaly(t *testing.T) {
	tr := New(nil, "scn_001", 1)
	tr.Observe(map[int]bool{1: true}, 1)

	completions := tr.Observe(map[int]bool{1: false}, 2)

	assert.Empty(t, completions, "un-completion must never be emitted as a new completion")
	assert.True(t, tr.AllSatisfied([]int{1}), "tracker must retain the original completion")
	require.Len(t, tr.Anomalies(), 1)
	assert.Equal(t, 1, tr.Anomalies()[0].SubtaskIndex)
	assert.Equal(t, 2, tr.Anomalies()[0].AtStep)
}

func TestAllSatisfiedRequiresEveryIndex(t *testing.T) {
	tr := New(nil, "scn_001", 1)
	tr.Observe(map[int]bool{1: true}, 1)

	assert.False(t, tr.AllSatisfied([]int{1, 2}))

	tr.Observe(map[int]bool{1: true, 2: true}, 2)

	assert.True(t, tr.AllSatisfied([]int{1, 2}))
}

func TestClassifyFourWayTruthTable(t *testing.T) {
	tests := []struct {
		name      string
		claimed   bool
		completed bool
		want      model.Accuracy
	}{
		{"correct", true, true, model.AccuracyCorrect},
		{"premature", true, false, model.AccuracyPremature},
		{"missed", false, true, model.AccuracyMissed},
		{"neither", false, false, model.AccuracyNeither},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := Classify(tt.claimed, 5, tt.completed, 3)
			assert.Equal(t, tt.want, analysis.Accuracy)
			assert.Equal(t, tt.claimed, analysis.ModelClaimedCompletion)
			assert.Equal(t, tt.completed, analysis.ActuallyCompleted)
		})
	}
}

func TestCompletedCount(t *testing.T) {
	tr := New(nil, "scn_001", 1)
	assert.Equal(t, 0, tr.CompletedCount())

	tr.Observe(map[int]bool{1: true, 2: true, 3: false}, 1)

	assert.Equal(t, 2, tr.CompletedCount())
}
