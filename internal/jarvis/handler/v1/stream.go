package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
)

const streamPollInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler serves run-progress updates over a websocket, for callers
// that would rather subscribe than poll GET /v1/runs/:id.
type StreamHandler struct {
	orch *orchestrator.Orchestrator
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(orch *orchestrator.Orchestrator) *StreamHandler {
	return &StreamHandler{orch: orch}
}

// Stream handles GET /v1/runs/:id/stream. It polls the run record at a
// fixed interval and pushes it over the socket whenever status changes,
// closing once the run reaches a terminal state.
func (h *StreamHandler) Stream(c *gin.Context) {
	runID := c.Param("id")
	userID := userIDFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("stream %s: upgrade failed: %v", runID, err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	var lastStatus entity.RunStatus
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			run, err := h.orch.GetRun(c.Request.Context(), runID, userID)
			if err != nil {
				_ = conn.WriteJSON(gin.H{"error": err.Error()})
				return
			}
			if run.Status == lastStatus {
				continue
			}
			lastStatus = run.Status
			if err := conn.WriteJSON(run); err != nil {
				return
			}
			if run.Status.IsTerminal() {
				return
			}
		}
	}
}
