package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
)

// HealthHandler serves the liveness/readiness/diagnostic endpoints.
type HealthHandler struct {
	sessions  *session.Manager
	startedAt time.Time
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(sessions *session.Manager) *HealthHandler {
	return &HealthHandler{sessions: sessions, startedAt: time.Now()}
}

// Health handles GET /health: a bare liveness probe.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /ready: a readiness probe that also confirms the
// session pool has spare capacity to accept work.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.sessions.PermitsAvailable() <= 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "session pool at capacity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Detailed handles GET /health/detailed: operator-facing diagnostics.
func (h *HealthHandler) Detailed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"uptimeSeconds":        int(time.Since(h.startedAt).Seconds()),
		"sessionsActive":       h.sessions.ActiveCount(),
		"sessionsMaxConcurrent": h.sessions.MaxConcurrent(),
	})
}
