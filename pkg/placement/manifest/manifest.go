// Package manifest builds the Kubernetes objects for a placement plan and
// renders them as a multi-document YAML stream.
package manifest

import (
	"fmt"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"
)

// DocumentSeparator joins the documents of a rendered manifest
const DocumentSeparator = "---\n"

// Manifest is the structured form of a plan's deployment manifest
type Manifest struct {
	Namespace   *corev1.Namespace
	Deployments []*appsv1.Deployment
	// Service is nil when the plan has no runtime components
	Service *corev1.Service
}

// Objects returns the manifest's objects in apply order
func (m *Manifest) Objects() []runtime.Object {
	objs := []runtime.Object{m.Namespace}
	for _, d := range m.Deployments {
		objs = append(objs, d)
	}
	if m.Service != nil {
		objs = append(objs, m.Service)
	}
	return objs
}

// Render serializes the manifest into a YAML stream, one document per object
func (m *Manifest) Render() (string, error) {
	var b strings.Builder
	for i, obj := range m.Objects() {
		out, err := yaml.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s: %w", obj.GetObjectKind().GroupVersionKind().Kind, err)
		}
		if i > 0 {
			b.WriteString(DocumentSeparator)
		}
		b.Write(out)
	}
	return b.String(), nil
}

// ComponentName derives a workload unit name from a component display name:
// lower-cased, with every character outside [a-z0-9-] replaced by '-'.
func ComponentName(display string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(display) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "service"
	}
	return b.String()
}
