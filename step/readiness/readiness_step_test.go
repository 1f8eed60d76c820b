package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/kube"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/runner/fake"
	"github.com/mensylisir/xmstack/runtime/runtimetest"
	"github.com/mensylisir/xmstack/step"
)

func TestWaitReadyStep_Command(t *testing.T) {
	h := runtimetest.New(t)
	h.Runner.On("curl -fsS http://10.0.0.5:30081/subjects", fake.Fail("refused"), fake.Result{Stdout: "[]"})

	s := NewWaitReadyStep("Ready", config.ReadinessSpec{Command: "curl -fsS http://${{ .hostIP }}:30081/subjects", Timeout: 60}, "data")
	res := step.NewStepRunner(h.RT).Run(context.Background(), s, logger.Discard())
	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, 2, res.Attempts)
}

func TestWaitReadyStep_Workload(t *testing.T) {
	replicas := int32(1)
	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "kafka", Namespace: "data", Generation: 1},
		Spec:       appsv1.StatefulSetSpec{Replicas: &replicas},
		Status:     appsv1.StatefulSetStatus{ObservedGeneration: 1, ReadyReplicas: 1},
	}
	h := runtimetest.New(t, runtimetest.WithKube(kube.NewClient(nil, nil, k8sfake.NewClientset(sts), "")))

	s := NewWaitReadyStep("Ready", config.ReadinessSpec{Kind: "StatefulSet", Name: "kafka", Timeout: 10}, "data")
	res := step.NewStepRunner(h.RT).Run(context.Background(), s, logger.Discard())
	require.True(t, res.Succeeded, res.Error)
	assert.Contains(t, h.Out.String(), "StatefulSet data/kafka is ready")
}

func TestWaitReadyStep_WorkloadTimeout(t *testing.T) {
	h := runtimetest.New(t, runtimetest.WithKube(kube.NewClient(nil, nil, k8sfake.NewClientset(), "")))

	s := NewWaitReadyStep("Ready", config.ReadinessSpec{Kind: "Deployment", Name: "traefik"}, "traefik")
	start := time.Now()
	res := step.NewStepRunner(h.RT).Run(context.Background(), s, logger.Discard())
	assert.False(t, res.Succeeded)
	assert.True(t, errors.Is(res.Err, common.ErrValidationTimeout))
	assert.Contains(t, res.Error, "not found")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitReadyStep_InitError(t *testing.T) {
	h := runtimetest.New(t)
	res := step.NewStepRunner(h.RT).Run(context.Background(), NewWaitReadyStep("Ready", config.ReadinessSpec{}, "x"), logger.Discard())
	assert.True(t, errors.Is(res.Err, common.ErrConfig))
}
