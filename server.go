package jarvis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jarvisrun/jarvis/internal/jarvis/config"
	"github.com/jarvisrun/jarvis/internal/jarvis/handler/middleware"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/idempotency"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/browseragent"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/echo"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/gen"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/research"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/action"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/driver"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/mcptool"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/provider"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/queue"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/queue/memoryqueue"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/queue/redisqueue"
	"github.com/jarvisrun/jarvis/internal/jarvis/store/boltdb"
	"github.com/jarvisrun/jarvis/internal/jarvis/store/sqlite"
)

// auditLogAdapter satisfies orchestrator.AuditLog over the concrete SQLite
// audit store, translating field names at the boundary between the two
// packages' own AuditEntry types.
type auditLogAdapter struct{ store *sqlite.AuditStore }

func (a auditLogAdapter) Append(ctx context.Context, e orchestrator.AuditEntry) error {
	return a.store.Append(ctx, sqlite.AuditEntry{
		RunID: e.RunID, NodeID: e.NodeID, Event: e.Event, Detail: e.Detail, CreatedAt: e.CreatedAt,
	})
}

// Server owns every long-lived component of a running jarvisd process and
// knows how to stop them in dependency order.
type Server struct {
	httpServer *http.Server
	reaper     *session.Reaper
	sessions   *session.Manager
	boltDB     *boltdb.DB
	auditStore *sqlite.AuditStore
	mcp        mcptool.Manager
	worker     *queue.Worker
	cfg        *config.Config
}

// New wires every module described by the run options into a Server ready
// to Run. Mirrors the teacher's Config -> Complete -> New module lifecycle,
// collapsed into one function since this service has far fewer modules.
func New(cfg *config.Config) (*Server, error) {
	boltDB, err := boltdb.Open(cfg.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}
	runStore := boltdb.NewRunStore(boltDB)
	nodeStore := boltdb.NewNodeStore(boltDB)

	auditStore, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		boltDB.Close()
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	backend := driver.New()
	sessions := session.NewManager(backend, cfg.MaxSessions, time.Now)
	reaper := session.NewReaper(sessions, cfg.SessionReapInterval, cfg.SessionIdleTimeout)

	registry := provider.AutoRegister()
	defaultProvider := provider.ChooseDefault(registry, "")
	defaultModel := provider.ChooseDefaultModel(registry, defaultProvider, "")
	facade := llm.NewFacade(registry, defaultProvider, defaultModel, llm.DefaultRetryPolicy())

	mcpCfg, err := mcptool.LoadConfig(cfg.MCPConfigFile)
	if err != nil {
		boltDB.Close()
		auditStore.Close()
		return nil, fmt.Errorf("load mcp config: %w", err)
	}
	mcpManager := mcptool.NewManager(mcpCfg)
	if err := mcpManager.Initialize(context.Background()); err != nil {
		log.Warn("mcp: initialize: %v", err)
	}

	var q orchestrator.Queue
	if cfg.UseRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		q = redisqueue.New(client, "jarvis:jobs")
	} else {
		q = memoryqueue.New(256)
	}

	orch := orchestrator.New(orchestrator.Config{
		MaxLLMCallsPerRun:     cfg.MaxLLMCallsPerRun,
		MaxBrowserStepsPerRun: cfg.MaxBrowserStepsPerRun,
		AgentNodeTimeout:      cfg.AgentNodeTimeout,
		AgentRunTimeout:       cfg.AgentRunTimeout,
		AsyncJobs:             cfg.AsyncJobs,
	}, runStore, nodeStore, q, auditLogAdapter{auditStore}, nil)

	budgets := orch.BudgetFor
	tracker := agents.NewRunScopedBudgetTracker(budgets)

	actions := action.NewEngine(sessions, backend, tracker, action.Config{
		URLPolicy: action.URLPolicy{
			BlockPrivateAddr: cfg.BlockPrivateAddr,
			AllowLocalhost:   cfg.AllowLocalhost,
		},
		AllowEvaluate:          cfg.AllowEvaluate,
		AllowDownloads:         cfg.AllowDownloads,
		MaxNavigationTimeoutMs: cfg.MaxNavigationTimeoutMs,
	})

	orch.RegisterHandler(echo.New())
	orch.RegisterHandler(gen.New(facade, budgets, mcpManager))
	orch.RegisterHandler(browseragent.New(sessions, actions, facade, budgets))
	orch.RegisterHandler(research.New(sessions, actions, facade, budgets, mcpManager))

	var worker *queue.Worker
	if cfg.AsyncJobs {
		popper, ok := q.(queue.Popper)
		if !ok {
			return nil, fmt.Errorf("configured queue backend does not support Pop")
		}
		requeuer, _ := q.(queue.Requeuer)
		queueName := "memory"
		if cfg.UseRedis {
			queueName = "redis"
		}
		worker = queue.NewWorker(queueName, popper, orch, requeuer, nil)
	}

	g := gin.New()
	initRouter(g, &routerDeps{
		orch:        orch,
		sessions:    sessions,
		actions:     actions,
		audit:       auditStore,
		idempotency: idempotency.New(cfg.IdempotencyTTL),
		authConfig:  &middleware.AuthConfig{Enabled: cfg.AuthEnabled, Token: cfg.AuthToken},
		rateLimiter: middleware.NewUserRateLimiter(cfg.RateLimitRPM),
	})

	return &Server{
		httpServer: &http.Server{Addr: cfg.ListenAddr, Handler: g},
		reaper:     reaper,
		sessions:   sessions,
		boltDB:     boltDB,
		auditStore: auditStore,
		mcp:        mcpManager,
		worker:     worker,
		cfg:        cfg,
	}, nil
}

// Run starts the reaper, the queue worker (if async jobs are enabled), and
// the HTTP server, blocking until ctx is cancelled, then shuts everything
// down in reverse dependency order.
func (s *Server) Run(ctx context.Context) error {
	s.reaper.Start(ctx)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	if s.worker != nil {
		go s.worker.Run(workerCtx)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("jarvisd listening on %s", s.cfg.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		s.shutdown(cancelWorker)
		return err
	}

	s.shutdown(cancelWorker)
	return nil
}

// shutdown stops the reaper, closes every live browser session and the MCP
// manager, cancels the queue worker's context (without waiting for the
// worker to return), shuts down the HTTP server, and closes the durable
// stores, in that order.
func (s *Server) shutdown(cancelWorker context.CancelFunc) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.reaper.Stop()
	s.sessions.CloseAll(shutdownCtx)
	if err := s.mcp.Close(); err != nil {
		log.Warn("mcp close: %v", err)
	}
	cancelWorker()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown: %v", err)
	}
	if err := s.auditStore.Close(); err != nil {
		log.Warn("audit store close: %v", err)
	}
	if err := s.boltDB.Close(); err != nil {
		log.Warn("boltdb close: %v", err)
	}
}
