package common

// Label and annotation keys written into generated manifests and read back by
// the cluster applier
const (
	// Base prefix for all planner labels and annotations
	LabelBase = "placement-planner.elevated-systems.io"

	// Plan identity
	LabelPlanID   = LabelBase + "/plan-id"
	LabelStrategy = LabelBase + "/strategy"

	// Workload units
	LabelComponent     = LabelBase + "/component"
	LabelComponentType = LabelBase + "/component-type"
	LabelApp           = "app"

	// Marks objects created by the planner
	LabelManagedBy     = "app.kubernetes.io/managed-by"
	ManagedByPlanner   = "carbon-placement-planner"
	AnnotationRegion   = LabelBase + "/region"
	AnnotationInstance = LabelBase + "/instance-class"

	// Field manager used for server-side writes
	FieldManager = "carbon-placement-planner"
)

// Environment variables injected into every workload unit
const (
	EnvPlanID        = "PLAN_ID"
	EnvRegion        = "REGION"
	EnvInstanceClass = "INSTANCE_CLASS"
)

// NamespacePrefix prefixes the plan id to form the namespace name
const NamespacePrefix = "plan-"

// NamespaceForPlan returns the namespace generated for a plan
func NamespaceForPlan(planID string) string {
	return NamespacePrefix + planID
}
