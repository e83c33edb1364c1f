// Package variables implements the three-layer variable resolver:
// user-supplied overrides, environment-variable lookups, and built-in
// defaults, in that priority order.
package variables

import "clnrmgo/internal/config"

// Key identifies one of the six recognized configuration variables.
type Key string

const (
	Svc         Key = "svc"
	Env         Key = "env"
	Endpoint    Key = "endpoint"
	Exporter    Key = "exporter"
	FreezeClock Key = "freeze_clock"
	Token       Key = "token"
)

type layerSpec struct {
	envKey       string
	defaultValue string
}

// layers is the fixed env-key/default pairing per recognized key,
// compiled once at package init since it never changes at runtime.
var layers = map[Key]layerSpec{
	Svc:         {envKey: "SERVICE_NAME", defaultValue: "clnrm"},
	Env:         {envKey: "ENV", defaultValue: "ci"},
	Endpoint:    {envKey: "OTEL_ENDPOINT", defaultValue: "http://localhost:4318"},
	Exporter:    {envKey: "OTEL_TRACES_EXPORTER", defaultValue: "otlp"},
	FreezeClock: {envKey: "FREEZE_CLOCK", defaultValue: "2025-01-01T00:00:00Z"},
	Token:       {envKey: "OTEL_TOKEN", defaultValue: ""},
}

// Resolver looks up a configuration value across the user, env and
// default layers, in that order. Immutable after construction: the
// user layer is copied in at New and never mutated afterward.
type Resolver struct {
	user map[Key]string
}

// New builds a Resolver over the caller-supplied overrides. A nil or
// empty map is equivalent to no user layer at all.
func New(user map[Key]string) *Resolver {
	copied := make(map[Key]string, len(user))
	for k, v := range user {
		copied[k] = v
	}

	return &Resolver{user: copied}
}

// Resolve returns the first layer (user, then env, then default) that
// contains key. Resolution is total for every recognized key, since
// every key in layers carries a default (possibly empty, as with
// token).
func (r *Resolver) Resolve(key Key) string {
	if v, ok := r.user[key]; ok {
		return v
	}

	spec, known := layers[key]
	if !known {
		return ""
	}

	return config.GetEnvStr(spec.envKey, spec.defaultValue)
}

// Keys returns every recognized variable key, in the table order
// spec.md enumerates them.
func Keys() []Key {
	return []Key{Svc, Env, Endpoint, Exporter, FreezeClock, Token}
}
