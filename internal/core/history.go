package core

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// History is the message log replayed to newly registered sessions.
type History struct {
	store store.HistoryStore
}

// NewHistory wraps a backing store.
func NewHistory(st store.HistoryStore) *History {
	return &History{store: st}
}

// Append records a delivered line.
func (h *History) Append(ctx context.Context, text string, at time.Time) error {
	if _, err := h.store.Append(ctx, text, at); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Lines returns every non-empty retained line in arrival order.
func (h *History) Lines(ctx context.Context) ([]string, error) {
	lines, err := h.store.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Text == "" {
			continue
		}
		out = append(out, l.Text)
	}
	return out, nil
}

// Len returns the number of stored lines.
func (h *History) Len(ctx context.Context) (int, error) {
	return h.store.Count(ctx)
}
