package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
)

// Relay is the part of the hub the HTTP surface needs.
type Relay interface {
	Serve(ctx context.Context, conn core.Conn)
	Participants() []string
	MaxUsers() int
}

// NewServer builds the ops HTTP server: health, participant report and the WebSocket transport.
func NewServer(relay Relay, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(relay, logger)
	router.GET("/health", api.Health)
	router.GET("/api/participants", api.Participants)

	// The upgrade needs the raw ResponseWriter, so /ws bypasses gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(relay, cfg.MaxFrameBytes, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
