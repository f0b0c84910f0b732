package v1

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/action"
)

// ActionHandler exposes the browser action engine over HTTP, outside the
// agent-run lifecycle, for callers that manage their own sessions directly.
type ActionHandler struct {
	actions *action.Engine
}

// NewActionHandler constructs an ActionHandler.
func NewActionHandler(actions *action.Engine) *ActionHandler {
	return &ActionHandler{actions: actions}
}

type actionRequest struct {
	RunID     string `json:"runId"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Selector  string `json:"selector"`
	Text      string `json:"text"`
	Value     string `json:"value"`
	Script    string `json:"script"`
	Target    string `json:"target"`
	TargetMs  *int   `json:"targetMs"`
	FullPage  bool   `json:"fullPage"`
}

func (h *ActionHandler) bind(c *gin.Context) (actionRequest, bool) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return req, false
	}
	if req.SessionID == "" {
		middleware.RespondError(c, apierr.New(apierr.Validation, apierr.CodeInvalidRequest, "sessionId is required"))
		return req, false
	}
	return req, true
}

// Goto handles POST /v1/action/goto.
func (h *ActionHandler) Goto(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.actions.Goto(c.Request.Context(), req.RunID, req.SessionID, req.URL); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Click handles POST /v1/action/click.
func (h *ActionHandler) Click(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.actions.Click(c.Request.Context(), req.RunID, req.SessionID, req.Selector); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Type handles POST /v1/action/type.
func (h *ActionHandler) Type(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.actions.Type(c.Request.Context(), req.RunID, req.SessionID, req.Selector, req.Text); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// WaitFor handles POST /v1/action/waitFor.
func (h *ActionHandler) WaitFor(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.actions.WaitFor(c.Request.Context(), req.RunID, req.SessionID, req.Target, req.TargetMs); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Select handles POST /v1/action/select.
func (h *ActionHandler) Select(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.actions.Select(c.Request.Context(), req.RunID, req.SessionID, req.Selector, req.Value); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Evaluate handles POST /v1/action/evaluate.
func (h *ActionHandler) Evaluate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.actions.Evaluate(c.Request.Context(), req.RunID, req.SessionID, req.Script)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Screenshot handles POST /v1/action/screenshot.
func (h *ActionHandler) Screenshot(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	data, err := h.actions.Screenshot(c.Request.Context(), req.RunID, req.SessionID, req.FullPage)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageBase64": base64.StdEncoding.EncodeToString(data)})
}

// PDF handles POST /v1/action/pdf.
func (h *ActionHandler) PDF(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	data, err := h.actions.PDF(c.Request.Context(), req.RunID, req.SessionID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfBase64": base64.StdEncoding.EncodeToString(data)})
}
