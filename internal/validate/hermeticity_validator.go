package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// hostAttrKeys are the attribute keys, besides http.url, consulted to
// determine the remote host a span touched, when no_external_services
// is set. http.url is handled separately since it carries a full URL
// rather than a bare host.
var hostAttrKeys = []string{"net.peer.name", "server.address", "peer.hostname"}

// defaultAllowlistHosts are always permitted, regardless of
// allowlist_hosts: loopback is hermetic by definition.
var defaultAllowlistHosts = []string{"localhost", "127.0.0.1", "::1"}

// defaultAllowlistSuffixes are host suffixes always permitted: internal
// cluster DNS, per spec.md's "defaults to loopback + internal cluster
// DNS".
var defaultAllowlistSuffixes = []string{".cluster.local", ".svc.cluster.local"}

// hostAllowlist reports whether host is permitted under allowlist_hosts,
// the loopback defaults, and the internal-cluster-DNS suffixes — never
// just the caller-supplied list, so an empty allowlist_hosts still
// treats a hermetic localhost service as hermetic.
func hostAllowlist(extra []string) func(host string) bool {
	allowed := make(map[string]bool, len(defaultAllowlistHosts)+len(extra))
	for _, h := range defaultAllowlistHosts {
		allowed[h] = true
	}

	for _, h := range extra {
		allowed[h] = true
	}

	return func(host string) bool {
		if allowed[host] {
			return true
		}

		for _, suffix := range defaultAllowlistSuffixes {
			if strings.HasSuffix(host, suffix) {
				return true
			}
		}

		return false
	}
}

// hostFromURL extracts the host component of an http.url attribute
// value. Returns "" for a value that doesn't parse as a URL.
func hostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return u.Hostname()
}

// Hermeticity runs the §4.2.7 hermeticity validator: it never inspects
// the host environment directly, only the span/resource attributes the
// instrumented process emitted, so it stays a pure function of the
// parsed span graph.
func Hermeticity(g *span.Graph, exp HermeticityExpectation) []report.Check {
	var checks []report.Check

	if exp.NoExternalServices {
		checks = append(checks, noExternalServicesCheck(g, exp.AllowlistHosts))
	}

	if len(exp.ResourceAttrsMustMatch) > 0 {
		checks = append(checks, resourceAttrsCheck(g, "hermeticity:resource_attrs", exp.ResourceAttrsMustMatch, false))
	}

	if len(exp.SDKResourceAttrsMustMatch) > 0 {
		checks = append(checks, resourceAttrsCheck(g, "hermeticity:sdk_resource_attrs", exp.SDKResourceAttrsMustMatch, true))
	}

	if len(exp.SpanAttrsForbidKeys) > 0 {
		checks = append(checks, forbidKeysCheck(g, exp.SpanAttrsForbidKeys))
	}

	return checks
}

func noExternalServicesCheck(g *span.Graph, allowlist []string) report.Check {
	allowed := hostAllowlist(allowlist)

	var offenders []string

	for _, s := range g.Spans {
		for _, key := range hostAttrKeys {
			v, ok := s.Attributes[key]
			if !ok {
				continue
			}

			host := span.AttrString(v)
			if host != "" && !allowed(host) {
				offenders = append(offenders, fmt.Sprintf("%s(%s=%s)", s.Name, key, host))
			}
		}

		if v, ok := s.Attributes["http.url"]; ok {
			host := hostFromURL(span.AttrString(v))
			if host != "" && !allowed(host) {
				offenders = append(offenders, fmt.Sprintf("%s(http.url=%s)", s.Name, host))
			}
		}
	}

	if len(offenders) == 0 {
		return report.Check{Name: "hermeticity:no_external_services", Passed: true}
	}

	sort.Strings(offenders)

	return report.Check{
		Name: "hermeticity:no_external_services", Passed: false,
		Message: fmt.Sprintf("non-allowlisted hosts touched: %v", offenders),
	}
}

func resourceAttrsCheck(g *span.Graph, name string, want map[string]string, sdk bool) report.Check {
	for _, s := range g.Spans {
		for k, v := range want {
			av, ok := s.ResourceAttrs[k]
			if !ok || span.AttrString(av) != v {
				kind := "resource"
				if sdk {
					kind = "sdk resource"
				}

				return report.Check{
					Name: name, Passed: false,
					Message: fmt.Sprintf("span %q %s attr %s != %s", s.Name, kind, k, v),
				}
			}
		}
	}

	return report.Check{Name: name, Passed: true}
}

func forbidKeysCheck(g *span.Graph, forbidden []string) report.Check {
	var offenders []string

	for _, s := range g.Spans {
		for _, key := range forbidden {
			if _, ok := s.Attributes[key]; ok {
				offenders = append(offenders, fmt.Sprintf("%s.%s", s.Name, key))
			}
		}
	}

	if len(offenders) == 0 {
		return report.Check{Name: "hermeticity:span_attrs_forbid_keys", Passed: true}
	}

	sort.Strings(offenders)

	return report.Check{
		Name: "hermeticity:span_attrs_forbid_keys", Passed: false,
		Message: fmt.Sprintf("forbidden attribute keys present: %v", offenders),
	}
}
