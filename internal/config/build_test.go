package config

import (
	"testing"

	"clnrmgo/internal/transport"
)

func TestDocument_ServicesConvertsSpecFields(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	specs := doc.Services()

	app, ok := specs["app"]
	if !ok {
		t.Fatal("expected an \"app\" service spec")
	}

	if app.Alias != "app" {
		t.Errorf("Alias = %q, want app", app.Alias)
	}

	if app.WaitForSpan != "app.ready" {
		t.Errorf("WaitForSpan = %q, want app.ready", app.WaitForSpan)
	}
}

func TestDocument_ScenariosConvertsStepsAndExpectedExit(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	scenarios := doc.Scenarios()
	if len(scenarios) != 1 {
		t.Fatalf("got %d scenarios, want 1", len(scenarios))
	}

	sc := scenarios[0]
	if sc.Name != "happy-path" {
		t.Errorf("Name = %q, want happy-path", sc.Name)
	}

	if len(sc.Steps) != 1 || sc.Steps[0].ServiceRef != "app" {
		t.Fatalf("unexpected steps: %+v", sc.Steps)
	}

	if sc.Steps[0].ExpectedExit == nil || *sc.Steps[0].ExpectedExit != 0 {
		t.Errorf("ExpectedExit = %v, want 0", sc.Steps[0].ExpectedExit)
	}
}

func TestDocument_SpanExpectationsConvertsDurationBound(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	exps := doc.SpanExpectations()
	if len(exps) != 2 {
		t.Fatalf("got %d span expectations, want 2", len(exps))
	}

	found := false

	for _, e := range exps {
		if e.Duration.MaxMillis != nil {
			found = true

			if *e.Duration.MaxMillis != 500.0 {
				t.Errorf("MaxMillis = %v, want 500", *e.Duration.MaxMillis)
			}
		}
	}

	if !found {
		t.Fatal("expected one span expectation with a duration_ms bound")
	}
}

func TestDocument_GraphExpectationConvertsPairs(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	g := doc.GraphExpectation()
	if !g.Acyclic {
		t.Error("expected Acyclic = true")
	}

	if len(g.MustInclude) != 1 || g.MustInclude[0] != [2]string{"app.ready", "app.handled"} {
		t.Errorf("MustInclude = %v, want [[app.ready app.handled]]", g.MustInclude)
	}
}

func TestDocument_ExporterKindConvertsOtelExporter(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if got := doc.ExporterKind(); got != transport.ExporterOTLP {
		t.Errorf("ExporterKind() = %v, want %v", got, transport.ExporterOTLP)
	}
}

func TestDocument_CountsExpectationConvertsBound(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	c := doc.CountsExpectation()
	if c.SpansTotal == nil || c.SpansTotal.Gte == nil || *c.SpansTotal.Gte != 1 {
		t.Errorf("SpansTotal.Gte = %v, want 1", c.SpansTotal)
	}
}
