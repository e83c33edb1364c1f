// Package transport implements the two OTLP span-ingest listeners named
// in spec.md §6 (`OtlpHttp`, `OtlpGrpc`): an HTTP/JSON receiver and a
// gRPC receiver, both built on the OTLP wire types the teacher's tracing
// exporters already depend on, and both exposed to the readiness gate
// and validator engine as a readiness.Source.
package transport

import (
	"encoding/hex"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"clnrmgo/internal/span"
)

// resourceSpansToSpans flattens an OTLP ResourceSpans batch into the
// engine's own span.Span shape, the same target type the stdout parser
// produces so the validator engine never has to know which transport a
// span arrived over.
func resourceSpansToSpans(batch []*tracepb.ResourceSpans) []span.Span {
	var out []span.Span

	for _, rs := range batch {
		resAttrs := attrsToMap(rs.GetResource().GetAttributes())

		for _, ss := range rs.GetScopeSpans() {
			for _, s := range ss.GetSpans() {
				out = append(out, convertSpan(s, resAttrs))
			}
		}
	}

	return out
}

func convertSpan(s *tracepb.Span, resAttrs map[string]any) span.Span {
	events := make([]span.Event, 0, len(s.GetEvents()))
	for _, e := range s.GetEvents() {
		events = append(events, span.Event{
			Name:       e.GetName(),
			Attributes: attrsToMap(e.GetAttributes()),
		})
	}

	return span.Span{
		Name:          s.GetName(),
		TraceID:       hex.EncodeToString(s.GetTraceId()),
		SpanID:        hex.EncodeToString(s.GetSpanId()),
		ParentSpanID:  hex.EncodeToString(s.GetParentSpanId()),
		Kind:          convertKind(s.GetKind()),
		StartUnixNano: int64(s.GetStartTimeUnixNano()),
		EndUnixNano:   int64(s.GetEndTimeUnixNano()),
		HasTimestamps: s.GetStartTimeUnixNano() != 0 || s.GetEndTimeUnixNano() != 0,
		Status:        convertStatus(s.GetStatus()),
		Attributes:    attrsToMap(s.GetAttributes()),
		ResourceAttrs: resAttrs,
		Events:        events,
	}
}

// convertKind relies on OTLP and go.opentelemetry.io/otel/trace sharing
// the same SpanKind numbering (both start at Unspecified=0 and count
// Internal, Server, Client, Producer, Consumer in the same order), so a
// direct cast is correct rather than coincidental.
func convertKind(k tracepb.Span_SpanKind) oteltrace.SpanKind {
	return oteltrace.SpanKind(int(k))
}

// convertStatus maps OTLP's status codes (Unset=0, Ok=1, Error=2) onto
// codes.Code (Unset=0, Error=1, Ok=2) — the two enums number Ok and
// Error in opposite order, so this cannot be a direct cast.
func convertStatus(st *tracepb.Status) codes.Code {
	switch st.GetCode() {
	case tracepb.Status_STATUS_CODE_OK:
		return codes.Ok
	case tracepb.Status_STATUS_CODE_ERROR:
		return codes.Error
	default:
		return codes.Unset
	}
}

func attrsToMap(attrs []*commonpb.KeyValue) map[string]any {
	if len(attrs) == 0 {
		return nil
	}

	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[kv.GetKey()] = anyValueToGo(kv.GetValue())
	}

	return out
}

func anyValueToGo(v *commonpb.AnyValue) any {
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_BoolValue:
		return val.BoolValue
	case *commonpb.AnyValue_IntValue:
		return val.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return val.DoubleValue
	case *commonpb.AnyValue_BytesValue:
		return hex.EncodeToString(val.BytesValue)
	case *commonpb.AnyValue_ArrayValue:
		items := val.ArrayValue.GetValues()
		out := make([]any, len(items))

		for i, item := range items {
			out[i] = anyValueToGo(item)
		}

		return out
	case *commonpb.AnyValue_KvlistValue:
		return attrsToMap(val.KvlistValue.GetValues())
	default:
		return nil
	}
}
