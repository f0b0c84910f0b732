// Package v1 implements the HTTP surface's handlers: runs, sessions,
// actions, legacy tasks, prebuilt flows, and diagnostics.
package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
	"github.com/jarvisrun/jarvis/internal/jarvis/store/sqlite"
)

// AuditReader is the subset of the audit store a RunHandler needs to serve
// GET /v1/runs/:id/logs.
type AuditReader interface {
	ListByRun(ctx context.Context, runID, cursor string, pageSize int) ([]sqlite.AuditEntry, string, error)
}

// RunHandler exposes the orchestrator over HTTP.
type RunHandler struct {
	orch  *orchestrator.Orchestrator
	audit AuditReader
}

// NewRunHandler constructs a RunHandler. audit may be nil, in which case
// the logs endpoint reports an empty page.
func NewRunHandler(orch *orchestrator.Orchestrator, audit AuditReader) *RunHandler {
	return &RunHandler{orch: orch, audit: audit}
}

type createRunRequest struct {
	Prompt    string             `json:"prompt"`
	Data      map[string]any     `json:"data"`
	Context   map[string]any     `json:"context"`
	AgentKind entity.AgentKind   `json:"agentKind"`
	TimeoutMs int                `json:"timeoutMs"`
	KeepAlive bool               `json:"keepAlive"`
	Steps     []entity.BrowserStep `json:"steps"`
}

func userIDFrom(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}

// Create handles POST /v1/runs.
func (h *RunHandler) Create(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}

	input := entity.RunInput{
		Prompt:  req.Prompt,
		Data:    req.Data,
		Context: req.Context,
		Options: entity.RunOptions{
			AgentKind: req.AgentKind,
			TimeoutMs: req.TimeoutMs,
			KeepAlive: req.KeepAlive,
			Steps:     req.Steps,
		},
	}

	run, err := h.orch.StartRun(c.Request.Context(), userIDFrom(c), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if run.Status == entity.RunPending {
		status = http.StatusAccepted
	}
	c.JSON(status, run)
}

// Get handles GET /v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.orch.GetRun(c.Request.Context(), c.Param("id"), userIDFrom(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// List handles GET /v1/runs.
func (h *RunHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, err := h.orch.ListRuns(c.Request.Context(), userIDFrom(c), limit, offset)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Logs handles GET /v1/runs/:id/logs, a cursor-paged window over the audit
// log for one run. Ownership is checked against the orchestrator's RBAC
// before the audit store is touched.
func (h *RunHandler) Logs(c *gin.Context) {
	runID := c.Param("id")
	if _, err := h.orch.GetRun(c.Request.Context(), runID, userIDFrom(c)); err != nil {
		middleware.RespondError(c, err)
		return
	}

	if h.audit == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []sqlite.AuditEntry{}, "nextCursor": ""})
		return
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	cursor := c.Query("cursor")

	entries, next, err := h.audit.ListByRun(c.Request.Context(), runID, cursor, pageSize)
	if err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Internal, "", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "nextCursor": next})
}
