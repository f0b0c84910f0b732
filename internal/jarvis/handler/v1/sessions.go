package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
)

// SessionHandler exposes the session pool over HTTP.
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	BrowserKind session.BrowserKind `json:"browserKind"`
	UserAgent   string              `json:"userAgent"`
	Proxy       string              `json:"proxy"`
}

// Create handles POST /v1/session/create.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}
	if req.BrowserKind == "" {
		req.BrowserKind = session.Chromium
	}

	id, err := h.sessions.Create(c.Request.Context(), session.CreateOptions{
		BrowserKind: req.BrowserKind,
		UserAgent:   req.UserAgent,
		Proxy:       req.Proxy,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

type closeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// Close handles POST /v1/session/close.
func (h *SessionHandler) Close(c *gin.Context) {
	var req closeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}
	if !h.sessions.Close(c.Request.Context(), req.SessionID) {
		middleware.RespondError(c, apierr.New(apierr.NotFound, apierr.CodeSessionNotFound, "session not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

// List handles GET /v1/session/list.
func (h *SessionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}
