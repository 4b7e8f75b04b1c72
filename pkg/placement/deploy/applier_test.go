package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/common"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/workload"
)

func testManifest(components ...workload.Component) *manifest.Manifest {
	return manifest.NewGenerator(config.Default().Manifest).Build(manifest.Params{
		PlanID:        "p1",
		Strategy:      strategy.Balanced,
		Region:        "us-west-2",
		InstanceClass: strategy.InstanceClass{Name: "standard-medium", CPU: "500m", Memory: "512Mi", Watts: 25},
		Replicas:      2,
		Components:    components,
	})
}

func factoryFor(client kubernetes.Interface, gotContext *string) ClientFactory {
	return func(contextName string) (kubernetes.Interface, error) {
		if gotContext != nil {
			*gotContext = contextName
		}
		return client, nil
	}
}

func TestApplyCreates(t *testing.T) {
	client := fake.NewSimpleClientset()
	var usedContext string
	applier := NewClusterApplier(factoryFor(client, &usedContext))

	m := testManifest(
		workload.Component{Name: "api", Type: workload.TypeAPIGateway},
		workload.Component{Name: "web", Type: workload.TypeFrontend},
	)
	res, err := applier.Apply(context.Background(), m, "prod-us-west")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "prod-us-west", usedContext)
	assert.Equal(t, []string{
		"namespace/plan-p1 created",
		"deployment.apps/api created",
		"deployment.apps/web created",
		"service/api created",
	}, res.Output)

	ctx := context.Background()
	ns, err := client.CoreV1().Namespaces().Get(ctx, "plan-p1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "p1", ns.Labels[common.LabelPlanID])

	d, err := client.AppsV1().Deployments("plan-p1").Get(ctx, "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), *d.Spec.Replicas)

	_, err = client.CoreV1().Services("plan-p1").Get(ctx, "api", metav1.GetOptions{})
	require.NoError(t, err)
}

func TestApplyUpdatesExisting(t *testing.T) {
	client := fake.NewSimpleClientset()
	applier := NewClusterApplier(factoryFor(client, nil))
	m := testManifest(workload.Component{Name: "api", Type: workload.TypeAPIGateway})

	_, err := applier.Apply(context.Background(), m, "")
	require.NoError(t, err)

	replicas := int32(3)
	m.Deployments[0].Spec.Replicas = &replicas
	res, err := applier.Apply(context.Background(), m, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"namespace/plan-p1 configured",
		"deployment.apps/api configured",
		"service/api configured",
	}, res.Output)

	d, err := client.AppsV1().Deployments("plan-p1").Get(context.Background(), "api", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), *d.Spec.Replicas)
}

func TestApplyNamespaceOnly(t *testing.T) {
	client := fake.NewSimpleClientset()
	res, err := NewClusterApplier(factoryFor(client, nil)).Apply(context.Background(), testManifest(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"namespace/plan-p1 created"}, res.Output)
}

func TestApplyFailure(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("create", "deployments", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("exceeded quota")
	})

	m := testManifest(workload.Component{Name: "api", Type: workload.TypeAPIGateway})
	res, err := NewClusterApplier(factoryFor(client, nil)).Apply(context.Background(), m, "")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	require.Len(t, res.Output, 2)
	assert.Equal(t, "namespace/plan-p1 created", res.Output[0])
	assert.Contains(t, res.Output[1], "exceeded quota")
}

func TestApplyClientError(t *testing.T) {
	factory := func(string) (kubernetes.Interface, error) {
		return nil, errors.New("no such context")
	}
	res, err := NewClusterApplier(factory).Apply(context.Background(), testManifest(), "missing")
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "missing", res.Context)
}

func TestApplyRegionCheck(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		detErr   error
		wantErr  error
		wantOK   bool
	}{
		{name: "matching region", detected: "us-west-2", wantOK: true},
		{name: "mismatched region", detected: "eu-west-1", wantErr: ErrRegionMismatch},
		{name: "detection failure", detErr: errors.New("no nodes"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fake.NewSimpleClientset()
			detector := func(context.Context, kubernetes.Interface) (string, error) {
				return tt.detected, tt.detErr
			}
			applier := NewClusterApplier(factoryFor(client, nil), WithRegionCheck(detector))

			res, err := applier.Apply(context.Background(), testManifest(), "")
			if tt.wantOK {
				require.NoError(t, err)
				assert.True(t, res.Success)
				assert.Equal(t, tt.detected, res.ClusterRegion)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			assert.False(t, res.Success)

			// nothing is created when the check fails
			list, _ := client.CoreV1().Namespaces().List(context.Background(), metav1.ListOptions{})
			assert.Empty(t, list.Items)
		})
	}
}

func TestDryRunApplier(t *testing.T) {
	m := testManifest(workload.Component{Name: "api", Type: workload.TypeAPIGateway})
	res, err := DryRunApplier{}.Apply(context.Background(), m, "staging")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{
		"Namespace/plan-p1 (dry run)",
		"Deployment/api (dry run)",
		"Service/api (dry run)",
	}, res.Output)
}
