package validate

import (
	"testing"

	"clnrmgo/internal/span"
)

func intPtr(n int) *int { return &n }

func TestCounts_SpansTotalEq(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "a", SpanID: "1", Attributes: map[string]any{}},
		{Name: "b", SpanID: "2", Attributes: map[string]any{}},
	})

	bound := Bound{Eq: intPtr(2)}
	checks := Counts(g, CountsExpectation{SpansTotal: &bound})

	if !checks[0].Passed {
		t.Errorf("expected spans_total==2 to pass, got %+v", checks[0])
	}
}

func TestCounts_ErrorsTotalCountsHasError(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "a", SpanID: "1", Attributes: map[string]any{"error": true}},
		{Name: "b", SpanID: "2", Attributes: map[string]any{}},
	})

	bound := Bound{Eq: intPtr(1)}
	checks := Counts(g, CountsExpectation{ErrorsTotal: &bound})

	if !checks[0].Passed {
		t.Errorf("expected errors_total==1 to pass, got %+v", checks[0])
	}
}

func TestCounts_ByNameGte(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "clnrm.step", SpanID: "1", Attributes: map[string]any{}},
		{Name: "clnrm.step", SpanID: "2", Attributes: map[string]any{}},
		{Name: "clnrm.run", SpanID: "3", Attributes: map[string]any{}},
	})

	checks := Counts(g, CountsExpectation{ByName: map[string]Bound{
		"clnrm.step": {Gte: intPtr(2)},
	}})

	if !checks[0].Passed {
		t.Errorf("expected by_name[clnrm.step]>=2 to pass, got %+v", checks[0])
	}
}

func TestCounts_EventsTotalSumsAcrossSpans(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "a", SpanID: "1", Attributes: map[string]any{}, Events: []span.Event{{Name: "e1"}, {Name: "e2"}}},
		{Name: "b", SpanID: "2", Attributes: map[string]any{}, Events: []span.Event{{Name: "e3"}}},
	})

	bound := Bound{Eq: intPtr(3)}
	checks := Counts(g, CountsExpectation{EventsTotal: &bound})

	if !checks[0].Passed {
		t.Errorf("expected events_total==3 to pass, got %+v", checks[0])
	}
}

func TestCounts_BoundFailureReportsMessage(t *testing.T) {
	g := span.NewGraph([]span.Span{{Name: "a", SpanID: "1", Attributes: map[string]any{}}})

	bound := Bound{Eq: intPtr(5)}
	checks := Counts(g, CountsExpectation{SpansTotal: &bound})

	if checks[0].Passed || checks[0].Message == "" {
		t.Errorf("expected failing check with a message, got %+v", checks[0])
	}
}
