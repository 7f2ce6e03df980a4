package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
)

// startTestServer runs the HTTP surface over httptest with a fresh hub.
func startTestServer(t *testing.T, maxUsers int) (*httptest.Server, *core.Hub) {
	t.Helper()

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(core.Options{MaxUsers: maxUsers, Logger: &disabledLogger})

	cfg := config.Default()
	cfg.HTTPAddr = ":0"
	cfg.MaxFrameBytes = 1024
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(hub, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		hub.Close(context.Background())
		ts.Close()
	})

	return ts, hub
}
