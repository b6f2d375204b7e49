// Package eventapi exposes the HTTP surface: live event ingestion, batch
// file analysis, and configuration health.
package eventapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/earshotlabs/earshot/internal/analysis"
	"github.com/earshotlabs/earshot/internal/dispatch"
	"github.com/earshotlabs/earshot/internal/severity"
)

// AnalysisService defines the batch operations eventapi needs.
type AnalysisService interface {
	Submit(ctx context.Context, data []byte, fileName, contentType string) (string, error)
	Get(ctx context.Context, id string) (*analysis.Task, bool, error)
}

// ConfigStatus is what the health endpoint reports about the deployment.
type ConfigStatus struct {
	ClassifierConfigured bool
	NotifierConfigured   bool
	EmergencyThreshold   int
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	evaluator *severity.Evaluator
	router    *dispatch.Router
	svc       AnalysisService
	status    ConfigStatus
}

// New creates a new API handler.
func New(logger log.Logger, router *dispatch.Router, svc AnalysisService, status ConfigStatus) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if router == nil {
		panic(xerrors.New("dispatch router is required"))
	}
	if svc == nil {
		panic(xerrors.New("analysis service is required"))
	}
	return &API{
		logger:    logger,
		evaluator: severity.New(),
		router:    router,
		svc:       svc,
		status:    status,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/events", a.handleIngestEvent)
	r.Get("/health", a.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", a.handleAnalyzeFile)
		r.Get("/analyze/{taskID}", a.handleGetAnalysis)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	overall := "healthy"
	if !a.status.ClassifierConfigured || !a.status.NotifierConfigured {
		overall = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    overall,
		"timestamp": time.Now().Format(time.RFC3339),
		"configuration": map[string]any{
			"classifier_configured": a.status.ClassifierConfigured,
			"notifier_configured":   a.status.NotifierConfigured,
			"emergency_threshold":   a.status.EmergencyThreshold,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}
