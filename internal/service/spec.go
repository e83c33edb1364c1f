package service

// VolumeMount names a host file for a container-backed plugin. The
// generic container plugin copies it into the container (mode 0644) at
// startup rather than binding it; ReadOnly is not applied.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// HealthCheck describes how a plugin decides Healthy vs Unhealthy once
// started, beyond whatever startup wait strategy got it running.
type HealthCheck struct {
	// Command is carried from the config; no plugin in this package
	// executes it.
	Command []string
	// Port, when set, is the generic_container health probe: the
	// container is Healthy when that port has a host mapping. The port
	// is not dialed. network_endpoint ignores Port and dials Host.
	Port int
	// IntervalSecs is how often the caller should re-check; callers poll
	// this rather than HealthCheck enforcing its own cadence.
	IntervalSecs int
}

// Spec is the resolved, plugin-agnostic configuration for one
// [service.<alias>] block: enough to build any of the five plugin
// kinds. Fields irrelevant to a given plugin kind are left zero.
type Spec struct {
	Alias   string
	Plugin  string
	Image   string
	Args    []string
	Env     map[string]string
	Ports   []int
	Volumes []VolumeMount

	HealthCheck *HealthCheck

	WaitForSpan            string
	WaitForSpanTimeoutSecs int

	Host string // network_endpoint only
}

// DefaultPlugin is the plugin kind assumed when [service.<alias>]
// omits the `plugin` key.
const DefaultPlugin = "generic_container"
