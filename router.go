package jarvis

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	v1 "github.com/jarvisrun/jarvis/internal/jarvis/handler/v1"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/idempotency"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/action"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
	"github.com/jarvisrun/jarvis/internal/jarvis/store/sqlite"
)

// routerDeps holds everything route registration needs. Built once in
// server.go and handed to initRouter.
type routerDeps struct {
	orch        *orchestrator.Orchestrator
	sessions    *session.Manager
	actions     *action.Engine
	audit       *sqlite.AuditStore
	idempotency *idempotency.Store
	authConfig  *middleware.AuthConfig
	rateLimiter *middleware.UserRateLimiter
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.RequestID())
	g.Use(middleware.CORS())

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
	if deps.rateLimiter != nil {
		g.Use(deps.rateLimiter.Middleware("X-User-Id"))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	runHandler := v1.NewRunHandler(deps.orch, deps.audit)
	sessionHandler := v1.NewSessionHandler(deps.sessions)
	actionHandler := v1.NewActionHandler(deps.actions)
	flowHandler := v1.NewFlowHandler(deps.orch, deps.idempotency)
	healthHandler := v1.NewHealthHandler(deps.sessions)

	g.GET("/health", healthHandler.Health)
	g.GET("/ready", healthHandler.Ready)
	g.GET("/health/detailed", healthHandler.Detailed)
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := g.Group("/v1")
	{
		apiV1.POST("/runs", runHandler.Create)
		apiV1.GET("/runs", runHandler.List)
		apiV1.GET("/runs/:id", runHandler.Get)
		apiV1.GET("/runs/:id/logs", runHandler.Logs)
		apiV1.GET("/runs/:id/stream", v1.NewStreamHandler(deps.orch).Stream)

		apiV1.POST("/tasks/create", flowHandler.CreateTask)
		apiV1.POST("/flows/price-monitor", flowHandler.PriceMonitor)
		apiV1.POST("/flows/form-autofill", flowHandler.FormAutofill)

		apiV1.POST("/session/create", sessionHandler.Create)
		apiV1.POST("/session/close", sessionHandler.Close)
		apiV1.GET("/session/list", sessionHandler.List)

		apiV1.POST("/action/goto", actionHandler.Goto)
		apiV1.POST("/action/click", actionHandler.Click)
		apiV1.POST("/action/type", actionHandler.Type)
		apiV1.POST("/action/waitFor", actionHandler.WaitFor)
		apiV1.POST("/action/select", actionHandler.Select)
		apiV1.POST("/action/evaluate", actionHandler.Evaluate)
		apiV1.POST("/action/screenshot", actionHandler.Screenshot)
		apiV1.POST("/action/pdf", actionHandler.PDF)
	}
}
