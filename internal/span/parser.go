package span

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Parser extracts NDJSON span records from a byte stream of container
// stdout, tolerating arbitrary log lines interleaved between them. It is
// stateless between calls so long as the caller hands back Residual —
// the residual is part of the output, not hidden state, so the parser is
// trivially testable one chunk at a time.
type Parser struct{}

// NewParser returns a Parser. It carries no state of its own.
func NewParser() *Parser {
	return &Parser{}
}

// Feed parses the largest prefix of newline-delimited complete JSON
// objects that look like spans out of chunk, prepended with any residual
// left over from a prior call. It never fails: lines that are not
// candidate spans (don't start with '{' and end with '}', don't parse as
// JSON, or lack the minimum `name`/`span_id` keys) are skipped silently
// as ordinary log output.
func (p *Parser) Feed(prevResidual []byte, chunk []byte) (spans []Span, residual []byte) {
	buf := make([]byte, 0, len(prevResidual)+len(chunk))
	buf = append(buf, prevResidual...)
	buf = append(buf, chunk...)

	lines := bytes.Split(buf, []byte("\n"))

	// The last element is either empty (chunk ended on a newline) or an
	// incomplete trailing line; hold it back as residual.
	residual = lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	spans = make([]Span, 0, len(lines))

	for _, line := range lines {
		if s, ok := parseCandidate(line); ok {
			spans = append(spans, s)
		}
	}

	return spans, residual
}

func parseCandidate(line []byte) (Span, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return Span{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Span{}, false
	}

	name, hasName := raw["name"].(string)

	spanID, hasSpanID := rawString(raw["span_id"])
	if !hasName || !hasSpanID || name == "" || spanID == "" {
		return Span{}, false
	}

	s := Span{
		Name:       name,
		SpanID:     spanID,
		Attributes: map[string]any{},
	}

	if traceID, ok := rawString(raw["trace_id"]); ok {
		s.TraceID = traceID
	}

	if parentID, ok := rawString(raw["parent_span_id"]); ok {
		s.ParentSpanID = parentID
	}

	if kind, ok := raw["kind"].(string); ok {
		s.Kind = ParseKind(kind)
	}

	start, hasStart := rawInt64(raw["start_time_unix_nano"])
	end, hasEnd := rawInt64(raw["end_time_unix_nano"])

	if hasStart && hasEnd {
		s.StartUnixNano = start
		s.EndUnixNano = end
		s.HasTimestamps = true
	}

	s.Status = parseStatus(raw)

	if attrs, ok := raw["attributes"].(map[string]any); ok {
		s.Attributes = attrs
	}

	if res, ok := raw["resource_attributes"].(map[string]any); ok {
		s.ResourceAttrs = res
	} else if res, ok := raw["resource"].(map[string]any); ok {
		s.ResourceAttrs = res
	}

	if events, ok := raw["events"].([]any); ok {
		for _, e := range events {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}

			ev := Event{Attributes: map[string]any{}}
			if n, ok := em["name"].(string); ok {
				ev.Name = n
			}

			if attrs, ok := em["attrs"].(map[string]any); ok {
				ev.Attributes = attrs
			} else if attrs, ok := em["attributes"].(map[string]any); ok {
				ev.Attributes = attrs
			}

			s.Events = append(s.Events, ev)
		}
	}

	return s, true
}

func rawString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func rawInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// ParseKind maps the spec's plain-text span kind names onto otel's
// SpanKind enum, defaulting to SpanKindInternal for anything unrecognized.
func ParseKind(kind string) oteltrace.SpanKind {
	switch strings.ToUpper(kind) {
	case "SERVER":
		return oteltrace.SpanKindServer
	case "CLIENT":
		return oteltrace.SpanKindClient
	case "PRODUCER":
		return oteltrace.SpanKindProducer
	case "CONSUMER":
		return oteltrace.SpanKindConsumer
	default:
		return oteltrace.SpanKindInternal
	}
}

func parseStatus(raw map[string]any) codes.Code {
	val, ok := raw["status"]
	if !ok {
		val, ok = raw["otel.status_code"]
	}

	if !ok {
		return codes.Unset
	}

	s, ok := val.(string)
	if !ok {
		return codes.Unset
	}

	switch strings.ToUpper(s) {
	case "OK", "STATUS_CODE_OK":
		return codes.Ok
	case "ERROR", "STATUS_CODE_ERROR":
		return codes.Error
	default:
		return codes.Unset
	}
}
