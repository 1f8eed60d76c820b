package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/pipeline/ending"
	"github.com/mensylisir/xmstack/runner/fake"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/runtime/runtimetest"
	"github.com/mensylisir/xmstack/section"
	"github.com/mensylisir/xmstack/step"
)

type countingStep struct {
	step.BaseStep
	fail  bool
	runs  int
	order *[]string
}

func newCountingStep(name string, fail bool, order *[]string) *countingStep {
	return &countingStep{BaseStep: step.NewBaseStep(name, ""), fail: fail, order: order}
}

func (s *countingStep) Execute(context.Context, runtime.Runtime, *logrus.Entry) (string, bool, error) {
	s.runs++
	if s.order != nil {
		*s.order = append(*s.order, s.Name())
	}
	if s.fail {
		return "", false, errors.New(s.Name() + " broke")
	}
	return "ok", true, nil
}

// scripted answers from fixed tables and records what it was asked.
type scripted struct {
	confirm   map[int]Decision
	onFailure Decision
	err       error
	asked     []string
	seen      func() string
	seenOnErr string
}

func (s *scripted) Confirm(_ context.Context, pos Position) (Decision, error) {
	s.asked = append(s.asked, "confirm:"+pos.Step.Name())
	if s.err != nil {
		return Abort, s.err
	}
	if d, ok := s.confirm[pos.Index]; ok {
		return d, nil
	}
	return Run, nil
}

func (s *scripted) OnFailure(_ context.Context, pos Position, _ step.ExecutionResult) (Decision, error) {
	s.asked = append(s.asked, "failure:"+pos.Step.Name())
	if s.seen != nil {
		s.seenOnErr = s.seen()
	}
	return s.onFailure, nil
}

func sectionOf(name string, steps ...step.Step) *section.Section {
	s := section.NewSection(name, "")
	for _, st := range steps {
		s.AddStep(st)
	}
	return s
}

func TestExecutor_AllSucceed(t *testing.T) {
	h := runtimetest.New(t)
	var order []string
	a, b, c := newCountingStep("A", false, &order), newCountingStep("B", false, &order), newCountingStep("C", false, &order)

	res, err := NewExecutor(h.RT, Unattended(AbortOnFailure)).
		Run(context.Background(), logger.Discard(), "all", sectionOf("one", a, b), sectionOf("two", c))
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseCompleted, res.Phase)
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Len(t, res.Steps, 3)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "two", res.Steps[2].Section)
	assert.Equal(t, ending.SequenceState{SectionIndex: 1, StepIndex: 0}, res.State)
}

func TestExecutor_EmptySequenceCompletes(t *testing.T) {
	h := runtimetest.New(t)
	res, err := NewExecutor(h.RT, nil).Run(context.Background(), logger.Discard(), "empty")
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseCompleted, res.Phase)
	assert.Empty(t, res.Steps)
}

func abcSection() *section.Section {
	return section.FromSpec(config.SectionSpec{Name: "demo", Steps: []config.StepSpec{
		{Name: "A", Command: "true"},
		{Name: "B", Command: "false"},
		{Name: "C", Command: "true"},
	}}, section.CommandStep)
}

func TestExecutor_ContinueOnFailure(t *testing.T) {
	h := runtimetest.New(t)
	h.Runner.On("false", fake.Fail("false: exit 1"))

	res, err := NewExecutor(h.RT, Unattended(ContinueOnFailure)).Run(context.Background(), logger.Discard(), "demo", abcSection())
	require.NoError(t, err)
	assert.Equal(t, []ending.StepStatus{ending.StepSucceeded, ending.StepFailed, ending.StepSucceeded}, res.Statuses())
	assert.Equal(t, ending.PhaseCompleted, res.Phase)
	assert.False(t, res.Succeeded())
	assert.Equal(t, []string{"true", "false", "true"}, h.Runner.Calls())
}

func TestExecutor_AbortOnFailure(t *testing.T) {
	h := runtimetest.New(t)
	h.Runner.On("false", fake.Fail("false: exit 1"))

	res, err := NewExecutor(h.RT, Unattended(AbortOnFailure)).Run(context.Background(), logger.Discard(), "demo", abcSection())
	require.NoError(t, err)
	assert.Equal(t, []ending.StepStatus{ending.StepSucceeded, ending.StepFailed}, res.Statuses())
	assert.Equal(t, ending.PhaseAborted, res.Phase)
	assert.True(t, res.State.Aborted)
	assert.Equal(t, 1, res.State.StepIndex)
	assert.Equal(t, 1, h.Runner.Count("true"), "C must not run")
	assert.Contains(t, res.Steps[1].Error, "false: exit 1")
}

func TestExecutor_NilOperatorAbortsWithoutAsking(t *testing.T) {
	h := runtimetest.New(t)
	a, b := newCountingStep("A", true, nil), newCountingStep("B", false, nil)

	res, err := NewExecutor(h.RT, nil).Run(context.Background(), logger.Discard(), "x", sectionOf("s", a, b))
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseAborted, res.Phase)
	assert.Equal(t, 0, b.runs)
}

func TestExecutor_SkipDoesNotRunStep(t *testing.T) {
	h := runtimetest.New(t)
	a, b, c := newCountingStep("A", false, nil), newCountingStep("B", false, nil), newCountingStep("C", false, nil)
	op := &scripted{confirm: map[int]Decision{1: Skip}}

	res, err := NewExecutor(h.RT, op).Run(context.Background(), logger.Discard(), "x", sectionOf("s", a, b, c))
	require.NoError(t, err)
	assert.Equal(t, 0, b.runs)
	assert.Equal(t, 1, c.runs)
	assert.Equal(t, []ending.StepStatus{ending.StepSucceeded, ending.StepSkipped, ending.StepSucceeded}, res.Statuses())
	assert.Equal(t, ending.PhaseCompleted, res.Phase)
	assert.True(t, res.Succeeded())
}

func TestExecutor_AbortBeforeDispatch(t *testing.T) {
	h := runtimetest.New(t)
	a, b := newCountingStep("A", false, nil), newCountingStep("B", false, nil)
	op := &scripted{confirm: map[int]Decision{1: Abort}}

	res, err := NewExecutor(h.RT, op).Run(context.Background(), logger.Discard(), "x", sectionOf("s", a, b))
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseAborted, res.Phase)
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 0, b.runs)
	assert.Len(t, res.Steps, 1)
}

func TestExecutor_OperatorDecidesAfterFailure(t *testing.T) {
	for _, tc := range []struct {
		decision Decision
		phase    ending.Phase
		cRuns    int
	}{
		{decision: Continue, phase: ending.PhaseCompleted, cRuns: 1},
		{decision: Abort, phase: ending.PhaseAborted, cRuns: 0},
		{decision: Skip, phase: ending.PhaseAborted, cRuns: 0},
	} {
		t.Run(tc.decision.String(), func(t *testing.T) {
			h := runtimetest.New(t)
			a, b, c := newCountingStep("A", false, nil), newCountingStep("B", true, nil), newCountingStep("C", false, nil)
			op := &scripted{onFailure: tc.decision, seen: h.Out.String}

			res, err := NewExecutor(h.RT, op).Run(context.Background(), logger.Discard(), "x", sectionOf("s", a, b, c))
			require.NoError(t, err)
			assert.Equal(t, tc.phase, res.Phase)
			assert.Equal(t, tc.cRuns, c.runs)
			assert.Contains(t, op.asked, "failure:B")
			assert.Contains(t, op.seenOnErr, "B FAILED: B broke", "failure is reported before the decision")
		})
	}
}

func TestExecutor_OperatorErrorAborts(t *testing.T) {
	h := runtimetest.New(t)
	a := newCountingStep("A", false, nil)
	op := &scripted{err: errors.New("EOF")}

	res, err := NewExecutor(h.RT, op).Run(context.Background(), logger.Discard(), "x", sectionOf("s", a))
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseAborted, res.Phase)
	assert.Equal(t, 0, a.runs)
}

func TestExecutor_CancelledContextAborts(t *testing.T) {
	h := runtimetest.New(t)
	a := newCountingStep("A", false, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewExecutor(h.RT, nil).Run(ctx, logger.Discard(), "x", sectionOf("s", a))
	require.NoError(t, err)
	assert.Equal(t, ending.PhaseAborted, res.Phase)
	assert.Equal(t, 0, a.runs)
}

func TestExecutor_RecordsMetrics(t *testing.T) {
	h := runtimetest.New(t)
	h.Runner.On("false", fake.Fail(""))

	_, err := NewExecutor(h.RT, Unattended(ContinueOnFailure)).Run(context.Background(), logger.Discard(), "demo", abcSection())
	require.NoError(t, err)

	expected := `
# HELP xmstack_sequence_total Sequences finished, by final phase
# TYPE xmstack_sequence_total counter
xmstack_sequence_total{phase="completed",run_id="test-run"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(h.RT.Metrics().Registry(), strings.NewReader(expected), "xmstack_sequence_total"))
	assert.Equal(t, 2, mustCount(t, h.RT, "xmstack_step_total"))
}

func TestOperatorFor(t *testing.T) {
	op, err := OperatorFor("continue")
	require.NoError(t, err)
	d, err := op.OnFailure(context.Background(), Position{}, step.ExecutionResult{})
	require.NoError(t, err)
	assert.Equal(t, Continue, d)

	_, err = OperatorFor("retry")
	assert.ErrorContains(t, err, "unknown failure policy 'retry'")
	assert.ErrorContains(t, err, "want one of [abort continue]")
	assert.Equal(t, []string{"abort", "continue"}, PolicyNames())
}

func mustCount(t *testing.T, rt runtime.Runtime, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(rt.Metrics().Registry(), name)
	require.NoError(t, err)
	return n
}

func TestExecutor_ConfigErrorStopsBeforeFirstStep(t *testing.T) {
	h := runtimetest.New(t)
	demo := section.FromSpec(config.SectionSpec{Name: "demo", Steps: []config.StepSpec{
		{Name: "A", Command: "echo ran-A"},
		{Name: "B", Command: `docker inspect -f '{{.State.Running}}' kafka`},
		{Name: "C", Command: "echo ${{ .nodeIP }}"},
	}}, section.CommandStep)
	op := &scripted{}

	res, err := NewExecutor(h.RT, op).Run(context.Background(), logger.Discard(), "demo", demo)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, common.ErrConfig))
	assert.Contains(t, err.Error(), "step 'C'")
	assert.Empty(t, h.Runner.Calls(), "nothing is dispatched")
	assert.Empty(t, op.asked, "the operator is never asked")
	assert.NotContains(t, h.Out.String(), "===>")
}

func TestExecutor_GoTemplateCommandRunsVerbatim(t *testing.T) {
	h := runtimetest.New(t)
	demo := section.FromSpec(config.SectionSpec{Name: "demo", Steps: []config.StepSpec{
		{Name: "A", Command: "echo ran-A"},
		{Name: "B", Command: `echo '{{.State.Running}}'`},
		{Name: "C", Command: "echo ran-C"},
	}}, section.CommandStep)

	res, err := NewExecutor(h.RT, Unattended(AbortOnFailure)).Run(context.Background(), logger.Discard(), "demo", demo)
	require.NoError(t, err)
	assert.Equal(t, []ending.StepStatus{ending.StepSucceeded, ending.StepSucceeded, ending.StepSucceeded}, res.Statuses())
	assert.Equal(t, []string{"echo ran-A", `echo '{{.State.Running}}'`, "echo ran-C"}, h.Runner.Calls())
}
