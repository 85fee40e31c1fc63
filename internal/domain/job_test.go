package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []JobState{
		JobStatePending,
		JobStateProcessing,
		JobStateAwaitingUserInput,
		JobStateCompleted,
		JobStateFailed,
	}

	legal := map[JobState][]JobState{
		JobStatePending:           {JobStateProcessing},
		JobStateProcessing:        {JobStateAwaitingUserInput, JobStateCompleted, JobStateFailed},
		JobStateAwaitingUserInput: {JobStateProcessing},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}
			got := CanTransition(from, to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestJobStateTerminal(t *testing.T) {
	assert.True(t, JobStateCompleted.Terminal())
	assert.True(t, JobStateFailed.Terminal())
	assert.False(t, JobStatePending.Terminal())
	assert.False(t, JobStateProcessing.Terminal())
	assert.False(t, JobStateAwaitingUserInput.Terminal())
}

func TestJobStateValid(t *testing.T) {
	assert.True(t, JobStatePending.Valid())
	assert.False(t, JobState("cancelled").Valid())
	assert.False(t, JobState("").Valid())
}

func TestMergeContextAdditive(t *testing.T) {
	job := &Job{Context: map[string]any{"initial_text": "hi", "a": 1}}

	merged := job.MergeContext(map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"initial_text": "hi", "a": 1, "b": 2}, merged)

	// Original context untouched.
	assert.NotContains(t, job.Context, "b")

	// Patch overwrites but never removes.
	merged = job.MergeContext(map[string]any{"a": 3})
	assert.Equal(t, 3, merged["a"])
	assert.Equal(t, "hi", merged["initial_text"])
}

func TestMergeContextNilReceiverContext(t *testing.T) {
	job := &Job{}
	merged := job.MergeContext(map[string]any{"k": "v"})
	assert.Equal(t, map[string]any{"k": "v"}, merged)
}
