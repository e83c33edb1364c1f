package span

import (
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestParserFeed_ValidSpanLine(t *testing.T) {
	p := NewParser()

	chunk := []byte(`{"name":"clnrm.step","span_id":"abc123","trace_id":"t1"}` + "\n")

	spans, residual := p.Feed(nil, chunk)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	if spans[0].Name != "clnrm.step" || spans[0].SpanID != "abc123" {
		t.Errorf("unexpected span: %+v", spans[0])
	}

	if len(residual) != 0 {
		t.Errorf("expected empty residual, got %q", residual)
	}
}

func TestParserFeed_SkipsJunkLinesSilently(t *testing.T) {
	p := NewParser()

	chunk := []byte("starting up...\n" +
		`{"name":"clnrm.run","span_id":"s1"}` + "\n" +
		"some log noise\n")

	spans, _ := p.Feed(nil, chunk)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}

	if spans[0].Name != "clnrm.run" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
}

func TestParserFeed_SkipsMalformedJSON(t *testing.T) {
	p := NewParser()

	chunk := []byte(`{"name":"broken", "span_id":` + "\n" +
		`{"name":"ok","span_id":"s2"}` + "\n")

	spans, _ := p.Feed(nil, chunk)
	if len(spans) != 1 || spans[0].Name != "ok" {
		t.Fatalf("expected only the well-formed span, got %+v", spans)
	}
}

func TestParserFeed_RequiresNameAndSpanID(t *testing.T) {
	p := NewParser()

	chunk := []byte(`{"name":"missing-id"}` + "\n" + `{"span_id":"missing-name"}` + "\n")

	spans, _ := p.Feed(nil, chunk)
	if len(spans) != 0 {
		t.Fatalf("expected 0 spans, got %d: %+v", len(spans), spans)
	}
}

func TestParserFeed_ResidualAcrossChunks(t *testing.T) {
	p := NewParser()

	first := []byte(`{"name":"clnrm.step","span_id"`)
	spans, residual := p.Feed(nil, first)

	if len(spans) != 0 {
		t.Fatalf("expected 0 spans from partial chunk, got %d", len(spans))
	}

	second := []byte(`:"s3"}` + "\n")
	spans, residual = p.Feed(residual, second)

	if len(spans) != 1 || spans[0].SpanID != "s3" {
		t.Fatalf("expected span reassembled from residual, got %+v", spans)
	}

	if len(residual) != 0 {
		t.Errorf("expected empty trailing residual, got %q", residual)
	}
}

func TestParserFeed_EmptyStreamYieldsZeroSpans(t *testing.T) {
	p := NewParser()

	spans, residual := p.Feed(nil, []byte("just some logs\nnothing span shaped\n"))
	if len(spans) != 0 {
		t.Fatalf("expected 0 spans, got %d", len(spans))
	}

	if len(residual) != 0 {
		t.Errorf("expected empty residual, got %q", residual)
	}
}

func TestParserFeed_ParsesTimestampsKindAndStatus(t *testing.T) {
	p := NewParser()

	chunk := []byte(`{"name":"clnrm.step","span_id":"s4","kind":"SERVER",` +
		`"start_time_unix_nano":1000,"end_time_unix_nano":2500,"status":"ERROR",` +
		`"attributes":{"step.name":"one"},"resource_attributes":{"telemetry.sdk.language":"go"},` +
		`"events":[{"name":"retry","attrs":{"n":1}}]}` + "\n")

	spans, _ := p.Feed(nil, chunk)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if !s.HasTimestamps || s.StartUnixNano != 1000 || s.EndUnixNano != 2500 {
		t.Errorf("unexpected timestamps: %+v", s)
	}

	if s.Status != codes.Error {
		t.Errorf("expected ERROR status, got %v", s.Status)
	}

	if s.Attributes["step.name"] != "one" {
		t.Errorf("unexpected attributes: %+v", s.Attributes)
	}

	if s.ResourceAttrs["telemetry.sdk.language"] != "go" {
		t.Errorf("unexpected resource attrs: %+v", s.ResourceAttrs)
	}

	if len(s.Events) != 1 || s.Events[0].Name != "retry" {
		t.Errorf("unexpected events: %+v", s.Events)
	}
}
