package manifest

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/common"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/workload"
)

// Params are the plan attributes a manifest is generated from
type Params struct {
	PlanID        string
	Strategy      strategy.Strategy
	Region        string
	InstanceClass strategy.InstanceClass
	Replicas      int
	Components    []workload.Component
}

// Generator builds manifests using the configured workload defaults
type Generator struct {
	cfg config.ManifestConfig
}

// NewGenerator creates a generator
func NewGenerator(cfg config.ManifestConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Build creates the manifest for p. Without runtime components the manifest
// holds only the namespace.
func (g *Generator) Build(p Params) *Manifest {
	ns := common.NamespaceForPlan(p.PlanID)
	m := &Manifest{Namespace: g.namespace(ns, p)}

	runtime := workload.RuntimeComponents(p.Components)
	if dups := collidingNames(runtime); len(dups) > 0 {
		// later deployments overwrite earlier ones on apply
		klog.V(2).InfoS("Components share a deployment name",
			"planID", p.PlanID,
			"names", dups)
	}

	// the service binds to the first api-gateway, else the first runtime component
	var first, gateway *appsv1.Deployment
	for _, c := range runtime {
		d := g.deployment(ns, c, p)
		m.Deployments = append(m.Deployments, d)
		if first == nil {
			first = d
		}
		if gateway == nil && c.Type == workload.TypeAPIGateway {
			gateway = d
		}
	}
	if gateway == nil {
		gateway = first
	}
	if gateway != nil {
		m.Service = g.service(ns, gateway.Name, p)
	}

	klog.V(4).InfoS("Built plan manifest",
		"planID", p.PlanID,
		"region", p.Region,
		"deployments", len(m.Deployments),
		"service", m.Service != nil)
	return m
}

// collidingNames returns, in first-seen order, the sanitized names produced by
// more than one component
func collidingNames(components []workload.Component) []string {
	counts := make(map[string]int, len(components))
	var out []string
	for _, c := range components {
		name := ComponentName(c.Name)
		counts[name]++
		if counts[name] == 2 {
			out = append(out, name)
		}
	}
	return out
}

func planLabels(p Params) map[string]string {
	return map[string]string{
		common.LabelPlanID:    p.PlanID,
		common.LabelStrategy:  string(p.Strategy),
		common.LabelManagedBy: common.ManagedByPlanner,
	}
}

func (g *Generator) namespace(name string, p Params) *corev1.Namespace {
	return &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: planLabels(p),
			Annotations: map[string]string{
				common.AnnotationRegion:   p.Region,
				common.AnnotationInstance: p.InstanceClass.Name,
			},
		},
	}
}

func (g *Generator) deployment(ns string, c workload.Component, p Params) *appsv1.Deployment {
	name := ComponentName(c.Name)
	replicas := int32(p.Replicas)

	labels := planLabels(p)
	labels[common.LabelApp] = name
	labels[common.LabelComponent] = name
	labels[common.LabelComponentType] = string(c.Type)

	podLabels := map[string]string{
		common.LabelApp:    name,
		common.LabelPlanID: p.PlanID,
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: ns,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{common.LabelApp: name},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec: corev1.PodSpec{
					NodeSelector: map[string]string{
						corev1.LabelTopologyRegion: p.Region,
					},
					Containers: []corev1.Container{{
						Name:  name,
						Image: g.cfg.Image,
						Ports: []corev1.ContainerPort{{
							ContainerPort: g.cfg.ContainerPort,
							Protocol:      corev1.ProtocolTCP,
						}},
						Env: []corev1.EnvVar{
							{Name: common.EnvPlanID, Value: p.PlanID},
							{Name: common.EnvRegion, Value: p.Region},
							{Name: common.EnvInstanceClass, Value: p.InstanceClass.Name},
						},
						Resources: requests(p.InstanceClass),
					}},
				},
			},
		},
	}
}

func requests(ic strategy.InstanceClass) corev1.ResourceRequirements {
	list := corev1.ResourceList{}
	if q, err := resource.ParseQuantity(ic.CPU); err == nil {
		list[corev1.ResourceCPU] = q
	}
	if q, err := resource.ParseQuantity(ic.Memory); err == nil {
		list[corev1.ResourceMemory] = q
	}
	if len(list) == 0 {
		return corev1.ResourceRequirements{}
	}
	return corev1.ResourceRequirements{Requests: list}
}

func (g *Generator) service(ns, target string, p Params) *corev1.Service {
	labels := planLabels(p)
	labels[common.LabelApp] = target

	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      target,
			Namespace: ns,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceType(g.cfg.ServiceType),
			Selector: map[string]string{common.LabelApp: target},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       g.cfg.ServicePort,
				TargetPort: intstr.FromInt32(g.cfg.ContainerPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}
