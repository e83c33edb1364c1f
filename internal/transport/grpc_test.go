package transport

import (
	"context"
	"testing"
)

func TestGRPCIngest_ExportBuffersSpans(t *testing.T) {
	ing, err := NewGRPCIngest("127.0.0.1:0", nil, discardLogger())
	if err != nil {
		t.Fatalf("NewGRPCIngest: %v", err)
	}
	defer ing.Shutdown(context.Background())

	if ing.Addr() == "" {
		t.Fatal("expected a bound address")
	}

	resp, err := ing.Export(context.Background(), sampleExportRequest("app.handled"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if resp == nil {
		t.Fatal("expected a non-nil response")
	}

	spans, err := ing.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(spans) != 1 || spans[0].Name != "app.handled" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}
