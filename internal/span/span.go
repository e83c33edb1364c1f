// Package span provides the in-memory representation of an OTEL span and
// span graph, and the stdout NDJSON span parser that feeds it.
package span

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type (
	// Event is a named occurrence recorded on a span, with its own
	// attribute set.
	Event struct {
		Name       string
		Attributes map[string]any
	}

	// Span is a read-only-after-ingestion OTEL span: a named, timed,
	// attributed unit of telemetry with optional parentage.
	Span struct {
		Name          string
		TraceID       string
		SpanID        string
		ParentSpanID  string
		Kind          oteltrace.SpanKind
		StartUnixNano int64
		EndUnixNano   int64
		HasTimestamps bool
		Status        codes.Code
		Attributes    map[string]any
		ResourceAttrs map[string]any
		Events        []Event
	}
)

// DurationMillis returns (end-start)/1e6, the millisecond duration used by
// the span and window validators. Callers must check HasTimestamps first.
func (s Span) DurationMillis() float64 {
	return float64(s.EndUnixNano-s.StartUnixNano) / 1_000_000.0
}

// HasError reports whether the span carries ERROR status or the
// conventional `error=true` attribute, the counts validator's
// errors_total predicate.
func (s Span) HasError() bool {
	if s.Status == codes.Error {
		return true
	}

	if v, ok := s.Attributes["error"]; ok {
		if b, ok := v.(bool); ok && b {
			return true
		}

		if str, ok := v.(string); ok && str == "true" {
			return true
		}
	}

	return false
}

// AttrString stringifies an attribute value the way the span validator's
// attrs.all/attrs.any comparisons do: direct string passthrough, %v for
// everything else.
func AttrString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
