package deploy

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/manifest"
)

// DryRunApplier renders the manifest instead of applying it. It is used when
// cluster deployment is disabled.
type DryRunApplier struct{}

func (DryRunApplier) Apply(_ context.Context, m *manifest.Manifest, contextName string) (*Result, error) {
	res := &Result{Context: contextName, Output: []string{}}
	for _, obj := range m.Objects() {
		meta, ok := obj.(metav1.Object)
		if !ok {
			continue
		}
		kind := obj.GetObjectKind().GroupVersionKind().Kind
		res.Output = append(res.Output, kind+"/"+meta.GetName()+" (dry run)")
	}
	res.Success = true
	klog.V(2).InfoS("Dry-run deployment", "namespace", m.Namespace.Name, "context", contextName)
	return res, nil
}
