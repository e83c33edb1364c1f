package readiness

import (
	"context"
	"strings"
	"testing"
)

func TestStdoutSource_ParsesValidSpanLine(t *testing.T) {
	r := strings.NewReader(`{"name":"clnrm.run","span_id":"abc"}` + "\n")

	src := NewStdoutSource(r)

	spans, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	found := false
	for _, s := range spans {
		if s.Name == "clnrm.run" {
			found = true
		}
	}

	if !found {
		t.Errorf("expected clnrm.run span, got %+v", spans)
	}
}

func TestStdoutSource_SubstringFallbackMatchesEmbeddedName(t *testing.T) {
	r := strings.NewReader(`level=info msg="saw span" extra={"name":"clnrm.step","other":1}` + "\n")

	src := NewStdoutSource(r)

	spans, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	found := false
	for _, s := range spans {
		if s.Name == "clnrm.step" {
			found = true
		}
	}

	if !found {
		t.Errorf("expected substring-matched clnrm.step span, got %+v", spans)
	}
}

func TestStdoutSource_EmptyReadReturnsNoSpans(t *testing.T) {
	r := strings.NewReader("")

	src := NewStdoutSource(r)

	spans, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(spans) != 0 {
		t.Errorf("expected zero spans from empty stream, got %+v", spans)
	}
}
