package transport

import (
	"context"
	"testing"

	"clnrmgo/internal/span"
)

func TestBuffer_PollDrainsButAllPersists(t *testing.T) {
	var b buffer

	b.append([]span.Span{{Name: "a"}})
	b.append([]span.Span{{Name: "b"}})

	drained, err := b.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(drained) != 2 {
		t.Fatalf("got %d spans, want 2", len(drained))
	}

	second, _ := b.Poll(context.Background())
	if len(second) != 0 {
		t.Fatalf("second Poll: got %d spans, want 0", len(second))
	}

	all := b.All()
	if len(all) != 2 {
		t.Fatalf("All(): got %d spans, want 2", len(all))
	}
}
