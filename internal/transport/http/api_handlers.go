package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIHandlers serves the read-only HTTP endpoints.
type APIHandlers struct {
	relay Relay
	log   *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(relay Relay, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		relay: relay,
		log:   logger,
	}
}

// ParticipantsResponse is the JSON form of the status report.
type ParticipantsResponse struct {
	Count        int      `json:"count"`
	MaxUsers     int      `json:"max_users"`
	Participants []string `json:"participants"`
}

// Health answers liveness probes.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Participants returns the current registry report.
// GET /api/participants
func (h *APIHandlers) Participants(c *gin.Context) {
	entries := h.relay.Participants()
	c.JSON(http.StatusOK, ParticipantsResponse{
		Count:        len(entries),
		MaxUsers:     h.relay.MaxUsers(),
		Participants: entries,
	})
}
