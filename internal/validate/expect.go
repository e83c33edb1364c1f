// Package validate implements the seven validator families specified for
// the OTEL span ingest engine: span, graph, counts, window, order, status
// and hermeticity. Every validator is a pure function over a span list —
// no I/O, no mutation of its inputs — so they can be unit-tested and
// called from any goroutine.
package validate

// Bound expresses a numeric bound of the form {eq | gte | lte | range}.
// Exactly one field combination is expected to be set by the config
// loader; Satisfies treats an all-nil Bound as always-satisfied.
type Bound struct {
	Eq      *int
	Gte     *int
	Lte     *int
	RangeLo *int
	RangeHi *int
}

// Satisfies reports whether n satisfies the bound.
func (b Bound) Satisfies(n int) bool {
	if b.Eq != nil && n != *b.Eq {
		return false
	}

	if b.Gte != nil && n < *b.Gte {
		return false
	}

	if b.Lte != nil && n > *b.Lte {
		return false
	}

	if b.RangeLo != nil && b.RangeHi != nil && (n < *b.RangeLo || n > *b.RangeHi) {
		return false
	}

	return true
}

// DurationBound is the closed [min, max] window named by a span
// expectation's duration_ms field. A nil pointer on either side means
// unbounded on that side.
type DurationBound struct {
	MinMillis *float64
	MaxMillis *float64
}

// Satisfies reports whether d falls within the closed interval.
func (b DurationBound) Satisfies(d float64) bool {
	if b.MinMillis != nil && d < *b.MinMillis {
		return false
	}

	if b.MaxMillis != nil && d > *b.MaxMillis {
		return false
	}

	return true
}

type (
	// SpanExpectation is one `[expect.span]` entry (spec §4.2.1).
	SpanExpectation struct {
		Name      string
		Parent    string
		Kind      string
		AttrsAll  map[string]string
		AttrsAny  []string
		EventsAny []string
		Duration  DurationBound
	}

	// GraphExpectation is the `[expect.graph]` entry (spec §4.2.2).
	GraphExpectation struct {
		MustInclude  [][2]string
		MustNotCross [][2]string
		Acyclic      bool
	}

	// CountsExpectation is the `[expect.counts]` entry (spec §4.2.3).
	CountsExpectation struct {
		SpansTotal  *Bound
		EventsTotal *Bound
		ErrorsTotal *Bound
		ByName      map[string]Bound
	}

	// WindowExpectation is one `[expect.window]` entry (spec §4.2.4).
	WindowExpectation struct {
		Outer    string
		Contains []string
	}

	// OrderExpectation is the `[expect.order]` entry (spec §4.2.5).
	OrderExpectation struct {
		MustPrecede [][2]string
		MustFollow  [][2]string
	}

	// StatusByName is one (glob_pattern, expected_status) pair.
	StatusByName struct {
		Pattern string
		Status  string
	}

	// StatusExpectation is the `[expect.status]` entry (spec §4.2.6).
	StatusExpectation struct {
		All    string
		ByName []StatusByName
	}

	// HermeticityExpectation is the `[expect.hermeticity]` entry (spec §4.2.7).
	HermeticityExpectation struct {
		NoExternalServices        bool
		AllowlistHosts            []string
		ResourceAttrsMustMatch    map[string]string
		SDKResourceAttrsMustMatch map[string]string
		SpanAttrsForbidKeys       []string
	}
)
