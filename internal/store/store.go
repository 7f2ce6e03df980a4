package store

import (
	"context"
	"time"
)

// Line is one delivered chat line in the message log.
type Line struct {
	Seq  int64
	Text string
	At   time.Time
}

// HistoryStore keeps the ordered message log for the lifetime of the process.
// Implementations are not required to be safe for concurrent use; the hub
// serializes every call.
type HistoryStore interface {
	// Append stores text and returns the stored line with its sequence number.
	Append(ctx context.Context, text string, at time.Time) (Line, error)
	// Lines returns every stored line in arrival order.
	Lines(ctx context.Context) ([]Line, error)
	// Count returns the number of stored lines.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Driver names accepted by configuration.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)
