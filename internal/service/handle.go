// Package service implements the service lifecycle manager: a
// name-keyed plugin registry over a pluggable ServicePlugin capability,
// and the concrete plugin kinds a cleanroom run can select.
package service

import "fmt"

// HealthStatus is the tri-state health a plugin reports for a handle.
type HealthStatus int

const (
	Healthy HealthStatus = iota
	Degraded
	Unhealthy
)

func (h HealthStatus) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return fmt.Sprintf("HealthStatus(%d)", int(h))
	}
}

// Handle is the read-only reference to a running service instance
// exposed to scenario steps through the environment. It is owned by the
// Registry; its lifetime runs from Start to Stop.
type Handle struct {
	ID          string
	ServiceName string
	Metadata    map[string]string
}
