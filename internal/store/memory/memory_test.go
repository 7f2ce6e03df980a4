package memory

import (
	"context"
	"testing"
	"time"
)

func TestLinesReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Append(ctx, "a", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, "b", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}

	lines, _ := s.Lines(ctx)
	lines[0].Text = "mutated"

	again, _ := s.Lines(ctx)
	if again[0].Text != "a" || again[1].Text != "b" {
		t.Fatalf("store was mutated through returned slice: %+v", again)
	}
	if again[1].Seq != 2 {
		t.Fatalf("expected seq 2, got %d", again[1].Seq)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("count = %d", n)
	}
}
