package validate

import (
	"fmt"
	"path"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"clnrmgo/internal/report"
	"clnrmgo/internal/span"
)

// Status runs the §4.2.6 status validator. `all` applies to every span
// in the graph; `by_name` applies a glob pattern (matched with
// path.Match, the same globbing the standard library already gives us
// for filepath-shaped patterns) against span names, each matching span
// checked independently.
func Status(g *span.Graph, exp StatusExpectation) []report.Check {
	var checks []report.Check

	if exp.All != "" {
		want := parseWantStatus(exp.All)
		failing := 0

		for _, s := range g.Spans {
			if s.Status != want {
				failing++
			}
		}

		if failing == 0 {
			checks = append(checks, report.Check{Name: "status:all", Passed: true})
		} else {
			checks = append(checks, report.Check{
				Name: "status:all", Passed: false,
				Message: fmt.Sprintf("%d span(s) did not have status %s", failing, exp.All),
			})
		}
	}

	for i, rule := range exp.ByName {
		checks = append(checks, statusByNameCheck(g, i, rule))
	}

	return checks
}

func statusByNameCheck(g *span.Graph, idx int, rule StatusByName) report.Check {
	name := fmt.Sprintf("status:by_name[%d]:%s", idx, rule.Pattern)
	want := parseWantStatus(rule.Status)

	matched := 0
	failing := 0

	for _, s := range g.Spans {
		ok, err := path.Match(rule.Pattern, s.Name)
		if err != nil || !ok {
			continue
		}

		matched++

		if s.Status != want {
			failing++
		}
	}

	if matched == 0 {
		return report.Check{Name: name, Passed: false, Message: fmt.Sprintf("no span name matched pattern %q", rule.Pattern)}
	}

	if failing > 0 {
		return report.Check{
			Name: name, Passed: false,
			Message: fmt.Sprintf("%d/%d matching span(s) did not have status %s", failing, matched, rule.Status),
		}
	}

	return report.Check{Name: name, Passed: true}
}

func parseWantStatus(s string) codes.Code {
	switch strings.ToUpper(s) {
	case "ERROR":
		return codes.Error
	case "OK":
		return codes.Ok
	default:
		return codes.Unset
	}
}
