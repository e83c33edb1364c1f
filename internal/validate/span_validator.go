package validate

import (
	"fmt"
	"strings"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Span runs the §4.2.1 span validator: for each expectation, find all
// spans with a matching name and record one Pass if any matching span
// satisfies every sub-check, one Fail otherwise (including the case of
// zero matching spans).
func Span(g *span.Graph, expectations []SpanExpectation) []report.Check {
	checks := make([]report.Check, 0, len(expectations))

	for _, exp := range expectations {
		checks = append(checks, evaluateSpanExpectation(g, exp))
	}

	return checks
}

func evaluateSpanExpectation(g *span.Graph, exp SpanExpectation) report.Check {
	name := "span:" + exp.Name

	matches := g.ByName(exp.Name)
	if len(matches) == 0 {
		return report.Check{Name: name, Passed: false, Message: fmt.Sprintf("no span named %q found", exp.Name)}
	}

	var lastReason string

	for _, s := range matches {
		ok, reason := spanSatisfies(g, s, exp)
		if ok {
			return report.Check{Name: name, Passed: true}
		}

		lastReason = reason
	}

	return report.Check{
		Name:    name,
		Passed:  false,
		Message: fmt.Sprintf("no matching span of %q satisfied expectation: %s", exp.Name, lastReason),
	}
}

func spanSatisfies(g *span.Graph, s span.Span, exp SpanExpectation) (bool, string) {
	if exp.Parent != "" {
		parentName, ok := g.ParentName(s)
		if !ok || parentName != exp.Parent {
			return false, fmt.Sprintf("parent %q not satisfied", exp.Parent)
		}
	}

	if exp.Kind != "" && s.Kind != span.ParseKind(exp.Kind) {
		return false, fmt.Sprintf("kind %q not satisfied", exp.Kind)
	}

	for k, v := range exp.AttrsAll {
		av, ok := s.Attributes[k]
		if !ok || span.AttrString(av) != v {
			return false, fmt.Sprintf("attrs.all[%s]=%s not satisfied", k, v)
		}
	}

	if len(exp.AttrsAny) > 0 && !anyAttrMatches(s, exp.AttrsAny) {
		return false, "attrs.any not satisfied"
	}

	if len(exp.EventsAny) > 0 && !anyEventMatches(s, exp.EventsAny) {
		return false, "events.any not satisfied"
	}

	if exp.Duration.MinMillis != nil || exp.Duration.MaxMillis != nil {
		if !s.HasTimestamps || !exp.Duration.Satisfies(s.DurationMillis()) {
			return false, "duration_ms not satisfied"
		}
	}

	return true, ""
}

func anyAttrMatches(s span.Span, patterns []string) bool {
	for _, p := range patterns {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}

		if av, present := s.Attributes[k]; present && span.AttrString(av) == v {
			return true
		}
	}

	return false
}

func anyEventMatches(s span.Span, names []string) bool {
	for _, ev := range s.Events {
		for _, want := range names {
			if ev.Name == want {
				return true
			}
		}
	}

	return false
}
