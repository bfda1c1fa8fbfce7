// Package http wires the chi router: middleware chain, authenticated API
// surface, admin surface, and the operational endpoints.
package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/admin"
	"custodia/internal/custody"
	"custodia/internal/evidence"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	"custodia/internal/platform/redis"
)

const requestTimeout = 30 * time.Second

// Handler owns the route tree and the services behind it.
type Handler struct {
	evidence *evidence.Service
	custody  *custody.Service
	admin    *admin.Service
	logger   *slog.Logger

	db    *sql.DB
	cache *redis.Client
}

type Deps struct {
	Evidence  *evidence.Service
	Custody   *custody.Service
	Admin     *admin.Service
	Validator middleware.TokenValidator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// DB and Cache are only health-checked; nil skips the check.
	DB    *sql.DB
	Cache *redis.Client
}

func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		evidence: deps.Evidence,
		custody:  deps.Custody,
		admin:    deps.Admin,
		logger:   deps.Logger,
		db:       deps.DB,
		cache:    deps.Cache,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Metadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))

		r.Route("/cases/{caseID}/evidence", func(r chi.Router) {
			r.Post("/", h.handleLogEvidence)
			r.Get("/", h.handleListCaseEvidence)
		})

		r.Route("/evidence/{evidenceID}", func(r chi.Router) {
			r.Get("/", h.handleGetEvidence)
			r.Get("/attachment", h.handleGetAttachment)
			r.Get("/custody", h.handleGetCustody)
			r.Get("/transfers", h.handleGetHistory)
			r.Post("/transfers", h.handleTransfer)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Get("/evidence", h.handleAdminEvidence)
			r.Get("/transfers", h.handleAdminTransfers)
			r.Get("/audit", h.handleAdminAudit)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"status": "ok"}
	status := http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			checks["postgres"] = err.Error()
			checks["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		if err := h.cache.Health(r.Context()); err != nil {
			checks["redis"] = err.Error()
			checks["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, checks)
}
