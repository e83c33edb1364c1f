package span

// Graph is the induced DAG of spans within one trace: edges run from
// child to parent by parent_span_id. Graph never assumes acyclicity or
// resolvable parentage — those are the graph validator's job to check.
type Graph struct {
	Spans  []Span
	byID   map[string]Span
	byName map[string][]Span
}

// NewGraph indexes a span list for the lookups the validator families need.
// Spans need not share a single trace_id; callers that need single-trace
// semantics filter beforehand.
func NewGraph(spans []Span) *Graph {
	g := &Graph{
		Spans:  spans,
		byID:   make(map[string]Span, len(spans)),
		byName: make(map[string][]Span, len(spans)),
	}

	for _, s := range spans {
		g.byID[s.SpanID] = s
		g.byName[s.Name] = append(g.byName[s.Name], s)
	}

	return g
}

// ByID returns the span with the given span_id, if known.
func (g *Graph) ByID(id string) (Span, bool) {
	s, ok := g.byID[id]

	return s, ok
}

// ByName returns all spans with the given name, in ingestion order.
func (g *Graph) ByName(name string) []Span {
	return g.byName[name]
}

// ParentName resolves a span's parent name, if its parent_span_id
// resolves to a known span within the graph.
func (g *Graph) ParentName(s Span) (string, bool) {
	if s.ParentSpanID == "" {
		return "", false
	}

	parent, ok := g.byID[s.ParentSpanID]
	if !ok {
		return "", false
	}

	return parent.Name, true
}

// Edge is a (parent_name, child_name) pair induced by resolvable parentage.
type Edge struct {
	Parent string
	Child  string
}

// Edges returns the name-level edge set induced by resolvable
// parent_span_id references, per the graph validator's definition.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.Spans))

	for _, s := range g.Spans {
		parentName, ok := g.ParentName(s)
		if !ok {
			continue
		}

		edges = append(edges, Edge{Parent: parentName, Child: s.Name})
	}

	return edges
}

// HasCycle runs a DFS over the span_id graph and reports whether a back
// edge exists, along with one span_id on the offending edge for
// diagnostics.
func (g *Graph) HasCycle() (cyclic bool, offendingSpanID string) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.Spans))

	var visit func(id string) (bool, string)
	visit = func(id string) (bool, string) {
		color[id] = gray

		s, ok := g.byID[id]
		if ok && s.ParentSpanID != "" {
			switch color[s.ParentSpanID] {
			case gray:
				return true, id
			case white:
				if _, exists := g.byID[s.ParentSpanID]; exists {
					if cyc, offender := visit(s.ParentSpanID); cyc {
						return true, offender
					}
				}
			}
		}

		color[id] = black

		return false, ""
	}

	for _, s := range g.Spans {
		if color[s.SpanID] == white {
			if cyc, offender := visit(s.SpanID); cyc {
				return true, offender
			}
		}
	}

	return false, ""
}
