package validate

import (
	"fmt"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Graph runs the §4.2.2 graph validator over the name-level edge set
// induced by resolvable parent_span_id references.
func Graph(g *span.Graph, exp GraphExpectation) []report.Check {
	edges := g.Edges()
	edgeSet := make(map[span.Edge]bool, len(edges))

	for _, e := range edges {
		edgeSet[e] = true
	}

	checks := make([]report.Check, 0, len(exp.MustInclude)+len(exp.MustNotCross)+1)

	for _, pair := range exp.MustInclude {
		name := fmt.Sprintf("graph:must_include:%s->%s", pair[0], pair[1])

		if edgeSet[span.Edge{Parent: pair[0], Child: pair[1]}] {
			checks = append(checks, report.Check{Name: name, Passed: true})
		} else {
			checks = append(checks, report.Check{
				Name: name, Passed: false,
				Message: fmt.Sprintf("edge %s->%s not present in span graph", pair[0], pair[1]),
			})
		}
	}

	for _, pair := range exp.MustNotCross {
		name := fmt.Sprintf("graph:must_not_cross:%s->%s", pair[0], pair[1])

		if edgeSet[span.Edge{Parent: pair[0], Child: pair[1]}] {
			checks = append(checks, report.Check{
				Name: name, Passed: false,
				Message: fmt.Sprintf("forbidden edge %s->%s present in span graph", pair[0], pair[1]),
			})
		} else {
			checks = append(checks, report.Check{Name: name, Passed: true})
		}
	}

	if exp.Acyclic {
		if cyclic, offender := g.HasCycle(); cyclic {
			checks = append(checks, report.Check{
				Name: "graph:acyclic", Passed: false,
				Message: fmt.Sprintf("cycle detected; back-edge touches span_id=%s", offender),
			})
		} else {
			checks = append(checks, report.Check{Name: "graph:acyclic", Passed: true})
		}
	}

	return checks
}
