// Package report holds the ValidationReport produced by the validator
// engine and the writers that render it to JSON, JUnit XML and a content
// digest.
package report

// Check is one named validation outcome: a span expectation, a graph
// invariant, a count bound, and so on. Exactly one Check is recorded per
// expectation evaluated, never more.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// Report is the append-only collection of checks produced by one
// validation run. It is created empty, appended to during validation,
// and never mutated again once Finalize is called.
type Report struct {
	checks    []Check
	finalized bool
}

// New returns an empty Report, ready to accumulate checks.
func New() *Report {
	return &Report{}
}

// Pass appends a passing check. Panics if the report has been finalized.
func (r *Report) Pass(name string) {
	r.append(Check{Name: name, Passed: true})
}

// Fail appends a failing check with a human-readable message. Panics if
// the report has been finalized.
func (r *Report) Fail(name, message string) {
	r.append(Check{Name: name, Passed: false, Message: message})
}

// AppendChecks folds the []Check a validator family returns into the
// report, in order. Panics if the report has been finalized.
func (r *Report) AppendChecks(checks []Check) {
	for _, c := range checks {
		r.append(c)
	}
}

func (r *Report) append(c Check) {
	if r.finalized {
		panic("report: cannot append after Finalize")
	}

	r.checks = append(r.checks, c)
}

// Finalize locks the report against further mutation. It is idempotent.
func (r *Report) Finalize() {
	r.finalized = true
}

// Checks returns the accumulated checks in recorded order.
func (r *Report) Checks() []Check {
	return append([]Check(nil), r.checks...)
}

// Passed reports whether every recorded check passed — true for a report
// with zero checks, matching the spec's `passed == (total_failures == 0)`
// invariant.
func (r *Report) Passed() bool {
	for _, c := range r.checks {
		if !c.Passed {
			return false
		}
	}

	return true
}

// Counts returns (total passes, total failures).
func (r *Report) Counts() (passes, failures int) {
	for _, c := range r.checks {
		if c.Passed {
			passes++
		} else {
			failures++
		}
	}

	return passes, failures
}
