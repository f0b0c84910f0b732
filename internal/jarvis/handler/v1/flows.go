package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/idempotency"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
)

// FlowHandler serves the legacy task endpoint and the prebuilt browser
// flows, both of which are thin wrappers over the orchestrator that add
// Idempotency-Key replay semantics.
type FlowHandler struct {
	orch  *orchestrator.Orchestrator
	idemp *idempotency.Store
}

// NewFlowHandler constructs a FlowHandler.
func NewFlowHandler(orch *orchestrator.Orchestrator, idemp *idempotency.Store) *FlowHandler {
	return &FlowHandler{orch: orch, idemp: idemp}
}

// startIdempotent starts a run unless the caller's Idempotency-Key header
// has already been used within its TTL, in which case the prior run is
// returned with 200 instead of the fresh-run status code.
func (h *FlowHandler) startIdempotent(c *gin.Context, input entity.RunInput) {
	key := c.GetHeader("Idempotency-Key")
	if key != "" && !idempotency.ValidKey(key) {
		middleware.RespondError(c, apierr.New(apierr.Validation, apierr.CodeInvalidRequest, "Idempotency-Key must be alphanumeric, '-', or '_'"))
		return
	}

	if key != "" {
		if runID, ok := h.idemp.Get(key); ok {
			run, err := h.orch.GetRun(c.Request.Context(), runID, userIDFrom(c))
			if err == nil {
				c.JSON(http.StatusOK, run)
				return
			}
		}
	}

	run, err := h.orch.StartRun(c.Request.Context(), userIDFrom(c), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if key != "" {
		h.idemp.Put(key, run.ID)
	}

	status := http.StatusCreated
	if run.Status == entity.RunPending {
		status = http.StatusAccepted
	}
	c.JSON(status, run)
}

type createTaskRequest struct {
	Prompt string         `json:"prompt"`
	Data   map[string]any `json:"data"`
}

// CreateTask handles POST /v1/tasks/create, the legacy task-creation route
// kept for callers that predate the run-oriented API. It always dispatches
// to the Gen agent kind.
func (h *FlowHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}
	h.startIdempotent(c, entity.RunInput{
		Prompt:  req.Prompt,
		Data:    req.Data,
		Options: entity.RunOptions{AgentKind: entity.KindGen},
	})
}

type priceMonitorRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
}

// PriceMonitor handles POST /v1/flows/price-monitor: navigate to a product
// page and read a price off it via a fixed selector-evaluate step pair.
func (h *FlowHandler) PriceMonitor(c *gin.Context) {
	var req priceMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}
	h.startIdempotent(c, entity.RunInput{
		Prompt: "monitor price",
		Data:   map[string]any{"url": req.URL, "selector": req.Selector},
		Options: entity.RunOptions{
			AgentKind: entity.KindBrowser,
			Steps: []entity.BrowserStep{
				{Action: "goto", URL: req.URL},
				{Action: "evaluate", Value: "document.querySelector(" + quoteSelector(req.Selector) + ")?.innerText"},
			},
		},
	})
}

type formAutofillRequest struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
	Submit string            `json:"submitSelector"`
}

// FormAutofill handles POST /v1/flows/form-autofill: navigate to a page,
// type a value into each named selector, and optionally click a submit
// button.
func (h *FlowHandler) FormAutofill(c *gin.Context) {
	var req formAutofillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apierr.Wrap(apierr.Validation, apierr.CodeInvalidRequest, err))
		return
	}

	steps := []entity.BrowserStep{{Action: "goto", URL: req.URL}}
	for selector, value := range req.Fields {
		steps = append(steps, entity.BrowserStep{Action: "type", Selector: selector, Value: value})
	}
	if req.Submit != "" {
		steps = append(steps, entity.BrowserStep{Action: "click", Selector: req.Submit})
	}

	h.startIdempotent(c, entity.RunInput{
		Prompt:  "autofill form",
		Data:    map[string]any{"url": req.URL},
		Options: entity.RunOptions{AgentKind: entity.KindBrowser, Steps: steps},
	})
}

func quoteSelector(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
