package runcmd

import (
	"bytes"
	"context"
	"errors"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/poll"
	"github.com/mensylisir/xmstack/runner/fake"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

func newRuntime(t *testing.T, r *fake.Runner, out *bytes.Buffer) runtime.Runtime {
	t.Helper()
	console := &config.ConsoleConfig{Kind: config.KindConsole}
	console.Spec.Variables = map[string]string{"hostIP": "10.0.0.5"}
	config.SetDefaults(console)
	rt, err := runtime.NewRuntime(runtime.Config{
		Console:   console,
		Runner:    r,
		Validator: poll.NewValidator(poll.WithInterval(time.Millisecond)),
		Out:       out,
		ErrOut:    out,
		WorkDir:   t.TempDir(),
		Log:       logger.Discard(),
	})
	require.NoError(t, err)
	return rt
}

func TestRunCommandStep_StreamsRenderedCommand(t *testing.T) {
	r := fake.New().On("curl http://10.0.0.5:30080", fake.Result{Stdout: "200 OK\n"})
	var out bytes.Buffer
	rt := newRuntime(t, r, &out)

	s := FromSpec(config.StepSpec{Name: "Curl", Command: "curl http://${{ .hostIP }}:30080"})
	res := step.NewStepRunner(rt).Run(context.Background(), s, logger.Discard())

	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, "200 OK\n", res.Output)
	assert.Equal(t, "200 OK\n", out.String(), "the operator sees live output")
	assert.Equal(t, []string{"curl http://10.0.0.5:30080"}, r.Calls())
}

func TestRunCommandStep_Sudo(t *testing.T) {
	r := fake.New()
	rt := newRuntime(t, r, &bytes.Buffer{})

	s := FromSpec(config.StepSpec{Name: "Status", Command: "k0s status", Sudo: true})
	res := step.NewStepRunner(rt).Run(context.Background(), s, logger.Discard())
	require.True(t, res.Succeeded)
	assert.Equal(t, []string{`sudo -E /bin/sh -c "k0s status"`}, r.Calls())
}

func TestRunCommandStep_Failure(t *testing.T) {
	r := fake.New().On("false", fake.Fail("nope"))
	rt := newRuntime(t, r, &bytes.Buffer{})

	res := step.NewStepRunner(rt).Run(context.Background(), NewRunCommandStep("B", "", "false"), logger.Discard())
	assert.False(t, res.Succeeded)
	assert.True(t, errors.Is(res.Err, common.ErrInvocation))
	assert.Contains(t, res.Error, "'false' exited with code 1: nope")
}

func TestRunCommandStep_Validation(t *testing.T) {
	r := fake.New().
		On("kubectl apply -f kafka.yaml").
		On("kubectl get sts kafka", fake.Fail("0/1"), fake.Fail("0/1"), fake.Result{Stdout: "1/1"})
	var out bytes.Buffer
	rt := newRuntime(t, r, &out)

	s := FromSpec(config.StepSpec{
		Name:    "Kafka",
		Command: "kubectl apply -f kafka.yaml",
		Validation: &config.ValidationSpec{
			Command:        "kubectl get sts kafka",
			Timeout:        60,
			SuccessMessage: "Kafka on ${{ .hostIP }}:30092",
		},
	})
	res := step.NewStepRunner(rt).Run(context.Background(), s, logger.Discard())

	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, r.Count("kubectl get sts kafka"))
	assert.Contains(t, out.String(), "Kafka on 10.0.0.5:30092")
}

func TestRunCommandStep_ValidationTimeout(t *testing.T) {
	r := fake.New().On("kubectl get sts kafka", fake.Fail("0/1"))
	rt := newRuntime(t, r, &bytes.Buffer{})

	s := FromSpec(config.StepSpec{
		Name:       "Kafka",
		Command:    "true",
		Validation: &config.ValidationSpec{Command: "kubectl get sts kafka", Timeout: 0},
	})
	res := step.NewStepRunner(rt).Run(context.Background(), s, logger.Discard())
	assert.False(t, res.Succeeded)
	assert.True(t, errors.Is(res.Err, common.ErrValidationTimeout))
	assert.Contains(t, res.Error, "0/1")
	assert.Equal(t, 1, r.Count("kubectl get sts kafka"))
}

func TestRunCommandStep_InitErrors(t *testing.T) {
	rt := newRuntime(t, fake.New(), &bytes.Buffer{})

	res := step.NewStepRunner(rt).Run(context.Background(), NewRunCommandStep("empty", "", " "), logger.Discard())
	assert.True(t, errors.Is(res.Err, common.ErrConfig))

	res = step.NewStepRunner(rt).Run(context.Background(), NewRunCommandStep("bad", "", "echo ${{ .nope }}"), logger.Discard())
	assert.True(t, errors.Is(res.Err, common.ErrConfig))
	assert.Contains(t, res.Error, "render command")
}

func TestRunCommandStep_GoTemplateTextRunsVerbatim(t *testing.T) {
	const command = `docker inspect -f '{{.State.Running}}' kafka`
	r := fake.New().On(command, fake.Result{Stdout: "true\n"})
	rt := newRuntime(t, r, &bytes.Buffer{})

	s := FromSpec(config.StepSpec{
		Name:       "Kafka running",
		Command:    command,
		Validation: &config.ValidationSpec{Command: `kubectl get pods -o go-template='{{range .items}}{{.metadata.name}}{{end}}'`},
	})
	res := step.NewStepRunner(rt).Run(context.Background(), s, logger.Discard())
	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, []string{command, `kubectl get pods -o go-template='{{range .items}}{{.metadata.name}}{{end}}'`}, r.Calls())
}

func TestRunCommandStep_InheritsStdin(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	console := &config.ConsoleConfig{Kind: config.KindConsole}
	console.Spec.Variables = map[string]string{"hostIP": "10.0.0.5"}
	config.SetDefaults(console)
	var out bytes.Buffer
	rt, err := runtime.NewRuntime(runtime.Config{
		Console: console,
		In:      strings.NewReader("hello\n"),
		Out:     &out,
		ErrOut:  &out,
		WorkDir: t.TempDir(),
		Log:     logger.Discard(),
	})
	require.NoError(t, err)

	res := step.NewStepRunner(rt).Run(context.Background(), NewRunCommandStep("Read", "", "read x; echo got-$x"), logger.Discard())
	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, "got-hello\n", res.Output)
	assert.Contains(t, out.String(), "got-hello")
}
