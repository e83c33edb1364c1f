package validate

import (
	"fmt"
	"sort"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Counts runs the §4.2.3 counts validator: each configured bound is
// evaluated independently, one Pass/Fail per bound.
func Counts(g *span.Graph, exp CountsExpectation) []report.Check {
	var checks []report.Check

	spansTotal := len(g.Spans)

	eventsTotal := 0
	errorsTotal := 0
	byName := map[string]int{}

	for _, s := range g.Spans {
		eventsTotal += len(s.Events)

		if s.HasError() {
			errorsTotal++
		}

		byName[s.Name]++
	}

	if exp.SpansTotal != nil {
		checks = append(checks, boundCheck("counts:spans_total", *exp.SpansTotal, spansTotal))
	}

	if exp.EventsTotal != nil {
		checks = append(checks, boundCheck("counts:events_total", *exp.EventsTotal, eventsTotal))
	}

	if exp.ErrorsTotal != nil {
		checks = append(checks, boundCheck("counts:errors_total", *exp.ErrorsTotal, errorsTotal))
	}

	if len(exp.ByName) > 0 {
		names := make([]string, 0, len(exp.ByName))
		for name := range exp.ByName {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			checks = append(checks, boundCheck(
				fmt.Sprintf("counts:by_name:%s", name), exp.ByName[name], byName[name],
			))
		}
	}

	return checks
}

func boundCheck(name string, b Bound, n int) report.Check {
	if b.Satisfies(n) {
		return report.Check{Name: name, Passed: true}
	}

	return report.Check{
		Name: name, Passed: false,
		Message: fmt.Sprintf("bound not satisfied: got %d", n),
	}
}
