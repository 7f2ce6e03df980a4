package memory

import (
	"context"
	"time"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// Store is a slice-backed store.HistoryStore.
type Store struct {
	lines []store.Line
}

// New returns an empty in-memory history.
func New() *Store {
	return &Store{}
}

// Append adds text at the end of the log.
func (s *Store) Append(_ context.Context, text string, at time.Time) (store.Line, error) {
	line := store.Line{
		Seq:  int64(len(s.lines)) + 1,
		Text: text,
		At:   at,
	}
	s.lines = append(s.lines, line)
	return line, nil
}

// Lines returns a copy of the log.
func (s *Store) Lines(_ context.Context) ([]store.Line, error) {
	out := make([]store.Line, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

// Count returns the number of lines.
func (s *Store) Count(_ context.Context) (int, error) {
	return len(s.lines), nil
}

// Close drops the log.
func (s *Store) Close() error {
	s.lines = nil
	return nil
}
