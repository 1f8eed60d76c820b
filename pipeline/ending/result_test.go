package ending

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmstack/common"
)

func TestStepStatusString(t *testing.T) {
	assert.Equal(t, "success", StepSucceeded.String())
	assert.Equal(t, "failure", StepFailed.String())
	assert.Equal(t, "skipped", StepSkipped.String())
	assert.Equal(t, "unknown_status_9", StepStatus(9).String())
}

func TestPhaseTerminal(t *testing.T) {
	assert.True(t, PhaseCompleted.Terminal())
	assert.True(t, PhaseAborted.Terminal())
	assert.False(t, PhasePending.Terminal())
	assert.False(t, PhaseAwaitingDecision.Terminal())
}

func TestSequenceResult(t *testing.T) {
	r := NewSequenceResult("all")
	assert.Equal(t, PhasePending, r.Phase)
	assert.NoError(t, r.CombinedError())

	r.Add(StepResult{Step: "A", Status: StepSucceeded})
	r.Add(StepResult{Step: "B", Status: StepSkipped})
	r.Phase = PhaseCompleted
	assert.True(t, r.Succeeded())
	assert.Equal(t, []StepStatus{StepSucceeded, StepSkipped}, r.Statuses())

	cause := errors.Join(common.ErrInvocation, errors.New("exit 1"))
	r.Add(StepResult{Step: "C", Status: StepFailed, Error: cause.Error(), Err: cause})
	assert.False(t, r.Succeeded(), "a continued failure still fails the run")
	assert.Equal(t, 1, r.Count(StepFailed))
	err := r.CombinedError()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvocation))

	r.Add(StepResult{Step: "D", Status: StepFailed, Error: "boom"})
	assert.Contains(t, r.CombinedError().Error(), "multiple steps failed")
	assert.Contains(t, r.CombinedError().Error(), "step D: boom")
}

func TestSequenceResult_AbortedWithoutFailure(t *testing.T) {
	r := NewSequenceResult("Cluster")
	r.Phase = PhaseAborted
	assert.False(t, r.Succeeded())
	assert.EqualError(t, r.CombinedError(), "sequence Cluster aborted")
}
