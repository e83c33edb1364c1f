package validate

import (
	"testing"

	"clnrmgo/internal/span"
)

func graphSpan(name, id, parent string) span.Span {
	return span.Span{Name: name, SpanID: id, ParentSpanID: parent, Attributes: map[string]any{}}
}

func TestGraph_MustIncludePasses(t *testing.T) {
	g := span.NewGraph([]span.Span{
		graphSpan("clnrm.run", "run1", ""),
		graphSpan("clnrm.step", "step1", "run1"),
	})

	checks := Graph(g, GraphExpectation{MustInclude: [][2]string{{"clnrm.run", "clnrm.step"}}})

	if !checks[0].Passed {
		t.Errorf("expected must_include to pass, got %+v", checks[0])
	}
}

func TestGraph_MustIncludeFailsOnMissingEdge(t *testing.T) {
	g := span.NewGraph([]span.Span{graphSpan("clnrm.run", "run1", "")})

	checks := Graph(g, GraphExpectation{MustInclude: [][2]string{{"clnrm.run", "clnrm.step"}}})

	if checks[0].Passed {
		t.Errorf("expected must_include to fail on absent edge")
	}
}

func TestGraph_MustNotCrossIsDirectional(t *testing.T) {
	g := span.NewGraph([]span.Span{
		graphSpan("clnrm.step", "step1", ""),
		graphSpan("clnrm.run", "run1", "step1"),
	})

	checks := Graph(g, GraphExpectation{MustNotCross: [][2]string{{"clnrm.run", "clnrm.step"}}})

	if !checks[0].Passed {
		t.Errorf("expected must_not_cross(run->step) to pass since only step->run edge exists, got %+v", checks[0])
	}
}

func TestGraph_MustNotCrossFailsOnForbiddenEdge(t *testing.T) {
	g := span.NewGraph([]span.Span{
		graphSpan("clnrm.run", "run1", ""),
		graphSpan("clnrm.step", "step1", "run1"),
	})

	checks := Graph(g, GraphExpectation{MustNotCross: [][2]string{{"clnrm.run", "clnrm.step"}}})

	if checks[0].Passed {
		t.Errorf("expected must_not_cross to fail when the forbidden edge is present")
	}
}

func TestGraph_AcyclicDetectsCycle(t *testing.T) {
	g := span.NewGraph([]span.Span{
		graphSpan("a", "1", "2"),
		graphSpan("b", "2", "1"),
	})

	checks := Graph(g, GraphExpectation{Acyclic: true})

	if checks[0].Passed {
		t.Errorf("expected acyclic check to fail on a 2-cycle")
	}
}

func TestGraph_AcyclicPassesOnDAG(t *testing.T) {
	g := span.NewGraph([]span.Span{
		graphSpan("a", "1", ""),
		graphSpan("b", "2", "1"),
	})

	checks := Graph(g, GraphExpectation{Acyclic: true})

	if !checks[0].Passed {
		t.Errorf("expected acyclic check to pass on a DAG, got %+v", checks[0])
	}
}
