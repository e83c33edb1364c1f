package validate

import (
	"testing"

	"clnrmgo/internal/span"
)

func TestSpan_MatchByNameAndAttrsAll(t *testing.T) {
	spans := []span.Span{
		{Name: "clnrm.step", SpanID: "1", Attributes: map[string]any{"step.id": "fetch"}},
	}

	g := span.NewGraph(spans)

	checks := Span(g, []SpanExpectation{
		{Name: "clnrm.step", AttrsAll: map[string]string{"step.id": "fetch"}},
	})

	if len(checks) != 1 || !checks[0].Passed {
		t.Fatalf("expected passing check, got %+v", checks)
	}
}

func TestSpan_NoMatchingNameFails(t *testing.T) {
	g := span.NewGraph(nil)

	checks := Span(g, []SpanExpectation{{Name: "clnrm.step"}})

	if len(checks) != 1 || checks[0].Passed {
		t.Fatalf("expected failing check for absent span, got %+v", checks)
	}
}

func TestSpan_AttrsAllMismatchFails(t *testing.T) {
	spans := []span.Span{
		{Name: "clnrm.step", SpanID: "1", Attributes: map[string]any{"step.id": "other"}},
	}

	g := span.NewGraph(spans)

	checks := Span(g, []SpanExpectation{
		{Name: "clnrm.step", AttrsAll: map[string]string{"step.id": "fetch"}},
	})

	if checks[0].Passed {
		t.Fatalf("expected attrs.all mismatch to fail")
	}
}

func TestSpan_ParentMatch(t *testing.T) {
	spans := []span.Span{
		{Name: "clnrm.run", SpanID: "run1", Attributes: map[string]any{}},
		{Name: "clnrm.step", SpanID: "step1", ParentSpanID: "run1", Attributes: map[string]any{}},
	}

	g := span.NewGraph(spans)

	checks := Span(g, []SpanExpectation{{Name: "clnrm.step", Parent: "clnrm.run"}})

	if !checks[0].Passed {
		t.Errorf("expected parent match to pass, got %+v", checks[0])
	}
}

func TestSpan_KindMismatchFallsThroughToNextMatch(t *testing.T) {
	spans := []span.Span{
		{Name: "clnrm.call", SpanID: "1", Kind: span.ParseKind("CLIENT"), Attributes: map[string]any{}},
		{Name: "clnrm.call", SpanID: "2", Kind: span.ParseKind("SERVER"), Attributes: map[string]any{}},
	}

	g := span.NewGraph(spans)

	checks := Span(g, []SpanExpectation{{Name: "clnrm.call", Kind: "SERVER"}})

	if !checks[0].Passed {
		t.Errorf("expected second matching span to satisfy kind, got %+v", checks[0])
	}
}

func TestSpan_DurationBound(t *testing.T) {
	spans := []span.Span{
		{
			Name: "clnrm.step", SpanID: "1", Attributes: map[string]any{},
			StartUnixNano: 0, EndUnixNano: 5_000_000, HasTimestamps: true,
		},
	}

	g := span.NewGraph(spans)

	min := 1.0
	max := 10.0

	checks := Span(g, []SpanExpectation{
		{Name: "clnrm.step", Duration: DurationBound{MinMillis: &min, MaxMillis: &max}},
	})

	if !checks[0].Passed {
		t.Errorf("expected 5ms span within [1,10]ms bound to pass, got %+v", checks[0])
	}
}

func TestSpan_EventsAny(t *testing.T) {
	spans := []span.Span{
		{
			Name: "clnrm.step", SpanID: "1", Attributes: map[string]any{},
			Events: []span.Event{{Name: "retry", Attributes: map[string]any{}}},
		},
	}

	g := span.NewGraph(spans)

	checks := Span(g, []SpanExpectation{{Name: "clnrm.step", EventsAny: []string{"timeout", "retry"}}})

	if !checks[0].Passed {
		t.Errorf("expected events.any match to pass, got %+v", checks[0])
	}
}
