package validate

import (
	"fmt"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Order runs the §4.2.5 order validator: must_precede(a, b) requires
// a.end <= b.start for some matching pair; must_follow(a, b) requires
// the same relation read as "a follows b", i.e. b.end <= a.start.
func Order(g *span.Graph, exp OrderExpectation) []report.Check {
	checks := make([]report.Check, 0, len(exp.MustPrecede)+len(exp.MustFollow))

	for _, pair := range exp.MustPrecede {
		checks = append(checks, orderCheck(g, "order:must_precede", pair[0], pair[1], pair[0], pair[1]))
	}

	for _, pair := range exp.MustFollow {
		checks = append(checks, orderCheck(g, "order:must_follow", pair[0], pair[1], pair[1], pair[0]))
	}

	return checks
}

// orderCheck reports whether some instance of earlierName ends at or
// before some instance of laterName starts. labelA/labelB are used only
// to name the check, preserving the caller's argument order in messages.
func orderCheck(g *span.Graph, kind, labelA, labelB, earlierName, laterName string) report.Check {
	name := fmt.Sprintf("%s:%s->%s", kind, labelA, labelB)

	earlier := g.ByName(earlierName)
	later := g.ByName(laterName)

	if len(earlier) == 0 || len(later) == 0 {
		return report.Check{
			Name: name, Passed: false,
			Message: fmt.Sprintf("could not resolve both %q and %q", earlierName, laterName),
		}
	}

	for _, e := range earlier {
		if !e.HasTimestamps {
			continue
		}

		for _, l := range later {
			if l.HasTimestamps && e.EndUnixNano <= l.StartUnixNano {
				return report.Check{Name: name, Passed: true}
			}
		}
	}

	return report.Check{
		Name: name, Passed: false,
		Message: fmt.Sprintf("no %q instance ended at or before any %q instance started", earlierName, laterName),
	}
}
