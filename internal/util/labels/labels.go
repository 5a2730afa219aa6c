package labels

// Label keys.
const (
	// KeyFleet identifies which fleet a server belongs to
	KeyFleet = "fleetboot.io/fleet"

	// KeyRole records the role a node resolved to
	KeyRole = "fleetboot.io/role"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "fleetboot.io/managed-by"
)

// ManagedByFleetboot is the default KeyManagedBy value.
const ManagedByFleetboot = "fleetboot"

// LabelBuilder provides a fluent interface for building fleet labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the fleet name pre-set.
func NewLabelBuilder(fleet string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyFleet:     fleet,
			KeyManagedBy: ManagedByFleetboot,
		},
	}
}

// WithRole adds a role label (e.g. "initializer", "joiner").
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForFleet returns a label selector string for all servers of a fleet.
func SelectorForFleet(fleet string) string {
	return KeyFleet + "=" + fleet
}

// InFleet reports whether a label set marks membership of fleet.
func InFleet(labels map[string]string, fleet string) bool {
	v, ok := labels[KeyFleet]
	return ok && v == fleet
}
