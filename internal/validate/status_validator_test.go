package validate

import (
	"testing"

	"go.opentelemetry.io/otel/codes"

	"clnrmgo/internal/span"
)

func TestStatus_AllPasses(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "a", SpanID: "1", Status: codes.Ok, Attributes: map[string]any{}},
		{Name: "b", SpanID: "2", Status: codes.Ok, Attributes: map[string]any{}},
	})

	checks := Status(g, StatusExpectation{All: "OK"})

	if !checks[0].Passed {
		t.Errorf("expected all-OK graph to pass status:all, got %+v", checks[0])
	}
}

func TestStatus_AllFailsOnOneOffender(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "a", SpanID: "1", Status: codes.Ok, Attributes: map[string]any{}},
		{Name: "b", SpanID: "2", Status: codes.Error, Attributes: map[string]any{}},
	})

	checks := Status(g, StatusExpectation{All: "OK"})

	if checks[0].Passed {
		t.Errorf("expected one error span to fail status:all")
	}
}

func TestStatus_ByNameGlob(t *testing.T) {
	g := span.NewGraph([]span.Span{
		{Name: "clnrm.step.fetch", SpanID: "1", Status: codes.Ok, Attributes: map[string]any{}},
		{Name: "clnrm.step.write", SpanID: "2", Status: codes.Ok, Attributes: map[string]any{}},
	})

	checks := Status(g, StatusExpectation{ByName: []StatusByName{
		{Pattern: "clnrm.step.*", Status: "OK"},
	}})

	if !checks[0].Passed {
		t.Errorf("expected glob match to pass, got %+v", checks[0])
	}
}

func TestStatus_ByNameNoMatchFails(t *testing.T) {
	g := span.NewGraph([]span.Span{{Name: "clnrm.run", SpanID: "1", Attributes: map[string]any{}}})

	checks := Status(g, StatusExpectation{ByName: []StatusByName{
		{Pattern: "clnrm.step.*", Status: "OK"},
	}})

	if checks[0].Passed {
		t.Errorf("expected no-match pattern to fail rather than vacuously pass")
	}
}
