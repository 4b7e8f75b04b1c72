// Package deploy applies generated plan manifests to a Kubernetes cluster.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/carbon-aware/cloudinfo/pkg/cloudinfo"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/common"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
)

// ErrRegionMismatch is returned when the target cluster runs in another region
// than the plan was made for
var ErrRegionMismatch = errors.New("cluster region does not match plan region")

// Result reports the outcome of applying a manifest
type Result struct {
	Success       bool     `json:"success"`
	Context       string   `json:"context,omitempty"`
	ClusterRegion string   `json:"clusterRegion,omitempty"`
	Output        []string `json:"output"`
}

// Applier applies a manifest to the cluster selected by contextName. The
// returned Result is never nil and carries the output captured so far.
type Applier interface {
	Apply(ctx context.Context, m *manifest.Manifest, contextName string) (*Result, error)
}

// ClientFactory returns a clientset for a kubeconfig context. An empty context
// selects the current one.
type ClientFactory func(contextName string) (kubernetes.Interface, error)

// KubeconfigClientFactory builds clients from a kubeconfig file, or the default
// loading rules when kubeconfig is empty
func KubeconfigClientFactory(kubeconfig string) ClientFactory {
	return func(contextName string) (kubernetes.Interface, error) {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfig != "" {
			rules.ExplicitPath = kubeconfig
		}
		overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}

		restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig context %q: %w", contextName, err)
		}
		client, err := kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
		}
		return client, nil
	}
}

// RegionDetector reports the cloud region a cluster runs in
type RegionDetector func(ctx context.Context, client kubernetes.Interface) (string, error)

// CloudInfoRegionDetector detects the cluster region from node labels
func CloudInfoRegionDetector(ctx context.Context, client kubernetes.Interface) (string, error) {
	info, err := cloudinfo.DetectCloudInfo(ctx, client, cloudinfo.Options{
		UseNodeLabels: true,
		UseIMDS:       false,
	})
	if err != nil {
		return "", err
	}
	klog.V(3).InfoS("CloudInfo detected provider and region",
		"provider", info.Provider,
		"region", info.Region,
		"source", info.Source)
	return info.Region, nil
}

// ClusterApplier creates or updates manifest objects through client-go
type ClusterApplier struct {
	clients ClientFactory
	// detectRegion is nil when the region check is disabled
	detectRegion RegionDetector
}

// Option customizes a ClusterApplier
type Option func(*ClusterApplier)

// WithRegionCheck refuses to apply when the detected cluster region differs
// from the plan's region
func WithRegionCheck(detector RegionDetector) Option {
	return func(a *ClusterApplier) {
		a.detectRegion = detector
	}
}

// NewClusterApplier creates an applier
func NewClusterApplier(clients ClientFactory, opts ...Option) *ClusterApplier {
	a := &ClusterApplier{clients: clients}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ClusterApplier) Apply(ctx context.Context, m *manifest.Manifest, contextName string) (*Result, error) {
	res := &Result{Context: contextName, Output: []string{}}

	client, err := a.clients(contextName)
	if err != nil {
		res.Output = append(res.Output, err.Error())
		return res, err
	}

	if a.detectRegion != nil {
		if err := a.checkRegion(ctx, client, m, res); err != nil {
			res.Output = append(res.Output, err.Error())
			return res, err
		}
	}

	steps := []func(context.Context, kubernetes.Interface) (string, error){
		func(ctx context.Context, c kubernetes.Interface) (string, error) {
			return applyNamespace(ctx, c, m.Namespace)
		},
	}
	for _, d := range m.Deployments {
		steps = append(steps, func(ctx context.Context, c kubernetes.Interface) (string, error) {
			return applyDeployment(ctx, c, d)
		})
	}
	if m.Service != nil {
		steps = append(steps, func(ctx context.Context, c kubernetes.Interface) (string, error) {
			return applyService(ctx, c, m.Service)
		})
	}

	for _, step := range steps {
		line, err := step(ctx, client)
		if err != nil {
			res.Output = append(res.Output, err.Error())
			klog.ErrorS(err, "Failed to apply manifest", "namespace", m.Namespace.Name, "context", contextName)
			return res, err
		}
		res.Output = append(res.Output, line)
	}

	res.Success = true
	klog.V(2).InfoS("Applied plan manifest",
		"namespace", m.Namespace.Name,
		"context", contextName,
		"objects", len(res.Output))
	return res, nil
}

func (a *ClusterApplier) checkRegion(ctx context.Context, client kubernetes.Interface, m *manifest.Manifest, res *Result) error {
	want := m.Namespace.Annotations[common.AnnotationRegion]
	got, err := a.detectRegion(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to detect cluster region: %w", err)
	}
	res.ClusterRegion = got
	if want != "" && got != want {
		return fmt.Errorf("%w: cluster is in %s, plan targets %s", ErrRegionMismatch, got, want)
	}
	return nil
}

func createOptions() metav1.CreateOptions {
	return metav1.CreateOptions{FieldManager: common.FieldManager}
}

func updateOptions() metav1.UpdateOptions {
	return metav1.UpdateOptions{FieldManager: common.FieldManager}
}

func applyNamespace(ctx context.Context, c kubernetes.Interface, ns *corev1.Namespace) (string, error) {
	api := c.CoreV1().Namespaces()
	existing, err := api.Get(ctx, ns.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		if _, err := api.Create(ctx, ns.DeepCopy(), createOptions()); err != nil {
			return "", fmt.Errorf("failed to create namespace %s: %w", ns.Name, err)
		}
		return "namespace/" + ns.Name + " created", nil
	case err != nil:
		return "", fmt.Errorf("failed to get namespace %s: %w", ns.Name, err)
	}

	updated := ns.DeepCopy()
	updated.ResourceVersion = existing.ResourceVersion
	if _, err := api.Update(ctx, updated, updateOptions()); err != nil {
		return "", fmt.Errorf("failed to update namespace %s: %w", ns.Name, err)
	}
	return "namespace/" + ns.Name + " configured", nil
}

func applyDeployment(ctx context.Context, c kubernetes.Interface, d *appsv1.Deployment) (string, error) {
	api := c.AppsV1().Deployments(d.Namespace)
	existing, err := api.Get(ctx, d.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		if _, err := api.Create(ctx, d.DeepCopy(), createOptions()); err != nil {
			return "", fmt.Errorf("failed to create deployment %s/%s: %w", d.Namespace, d.Name, err)
		}
		return "deployment.apps/" + d.Name + " created", nil
	case err != nil:
		return "", fmt.Errorf("failed to get deployment %s/%s: %w", d.Namespace, d.Name, err)
	}

	updated := d.DeepCopy()
	updated.ResourceVersion = existing.ResourceVersion
	if _, err := api.Update(ctx, updated, updateOptions()); err != nil {
		return "", fmt.Errorf("failed to update deployment %s/%s: %w", d.Namespace, d.Name, err)
	}
	return "deployment.apps/" + d.Name + " configured", nil
}

func applyService(ctx context.Context, c kubernetes.Interface, svc *corev1.Service) (string, error) {
	api := c.CoreV1().Services(svc.Namespace)
	existing, err := api.Get(ctx, svc.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		if _, err := api.Create(ctx, svc.DeepCopy(), createOptions()); err != nil {
			return "", fmt.Errorf("failed to create service %s/%s: %w", svc.Namespace, svc.Name, err)
		}
		return "service/" + svc.Name + " created", nil
	case err != nil:
		return "", fmt.Errorf("failed to get service %s/%s: %w", svc.Namespace, svc.Name, err)
	}

	updated := svc.DeepCopy()
	updated.ResourceVersion = existing.ResourceVersion
	// allocated by the API server and immutable
	updated.Spec.ClusterIP = existing.Spec.ClusterIP
	updated.Spec.ClusterIPs = existing.Spec.ClusterIPs
	if _, err := api.Update(ctx, updated, updateOptions()); err != nil {
		return "", fmt.Errorf("failed to update service %s/%s: %w", svc.Namespace, svc.Name, err)
	}
	return "service/" + svc.Name + " configured", nil
}
