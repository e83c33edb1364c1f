package service

import (
	"fmt"

	"clnrmgo/internal/cache"
	"clnrmgo/internal/clnrmerr"
	"clnrmgo/internal/readiness"
)

// Build constructs the concrete Plugin a [service.<alias>] block
// selects. spanSource is only consulted when spec.WaitForSpan is set;
// callers resolve it from the spec's configured span source (stdout or
// OTLP) before calling Build, since that resolution depends on the
// scenario's transport wiring, not the plugin kind itself.
func Build(spec Spec, containerCache *cache.ContainerCache, gate *readiness.Gate, spanSource readiness.Source) (Plugin, error) {
	plugin, err := buildBase(spec, containerCache)
	if err != nil {
		return nil, err
	}

	if spec.WaitForSpan == "" {
		return plugin, nil
	}

	if spanSource == nil {
		return nil, fmt.Errorf("service %q: wait_for_span set but no span source configured: %w", spec.Alias, clnrmerr.ErrUnresolvedReference)
	}

	return NewSpanReadinessPlugin(plugin, gate, spanSource, spec.WaitForSpan, spec.WaitForSpanTimeoutSecs), nil
}

func buildBase(spec Spec, containerCache *cache.ContainerCache) (Plugin, error) {
	kind := spec.Plugin
	if kind == "" {
		kind = DefaultPlugin
	}

	switch kind {
	case "generic_container":
		return NewGenericContainerPlugin(spec, containerCache), nil
	case "database_container":
		return NewDatabaseContainerPlugin(spec, containerCache), nil
	case "broker_container":
		return NewBrokerContainerPlugin(spec, containerCache), nil
	case "network_endpoint":
		return NewNetworkEndpointPlugin(spec), nil
	default:
		return nil, fmt.Errorf("service %q: unknown plugin kind %q: %w", spec.Alias, kind, clnrmerr.ErrUnresolvedReference)
	}
}
