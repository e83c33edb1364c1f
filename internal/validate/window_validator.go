package validate

import (
	"fmt"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Window runs the §4.2.4 window validator: every span named in Contains
// must fall within the closed [start, end] interval of the outer span,
// by wall-clock timestamps. A span missing timestamps, or an unresolved
// outer/inner name, fails the check it participates in.
func Window(g *span.Graph, expectations []WindowExpectation) []report.Check {
	checks := make([]report.Check, 0, len(expectations))

	for _, exp := range expectations {
		checks = append(checks, evaluateWindowExpectation(g, exp)...)
	}

	return checks
}

func evaluateWindowExpectation(g *span.Graph, exp WindowExpectation) []report.Check {
	checks := make([]report.Check, 0, len(exp.Contains))

	outers := g.ByName(exp.Outer)
	if len(outers) == 0 {
		for _, inner := range exp.Contains {
			checks = append(checks, report.Check{
				Name:    fmt.Sprintf("window:%s:%s", exp.Outer, inner),
				Passed:  false,
				Message: fmt.Sprintf("outer span %q not found", exp.Outer),
			})
		}

		return checks
	}

	for _, innerName := range exp.Contains {
		checks = append(checks, evaluateContainment(g, exp.Outer, outers, innerName))
	}

	return checks
}

func evaluateContainment(g *span.Graph, outerName string, outers []span.Span, innerName string) report.Check {
	name := fmt.Sprintf("window:%s:%s", outerName, innerName)

	inners := g.ByName(innerName)
	if len(inners) == 0 {
		return report.Check{Name: name, Passed: false, Message: fmt.Sprintf("inner span %q not found", innerName)}
	}

	for _, outer := range outers {
		if !outer.HasTimestamps {
			continue
		}

		for _, inner := range inners {
			if inner.HasTimestamps && contains(outer, inner) {
				return report.Check{Name: name, Passed: true}
			}
		}
	}

	return report.Check{
		Name:    name,
		Passed:  false,
		Message: fmt.Sprintf("no %q span fell within any %q window", innerName, outerName),
	}
}

func contains(outer, inner span.Span) bool {
	return inner.StartUnixNano >= outer.StartUnixNano && inner.EndUnixNano <= outer.EndUnixNano
}
