// Package server exposes the planner, deployment and analytics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"k8s.io/component-base/metrics/legacyregistry"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/deploy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/history"
)

// Planner produces plans for a request
type Planner interface {
	Plan(ctx context.Context, req placement.Request) (*placement.Result, error)
}

// Server holds the HTTP handlers and their collaborators
type Server struct {
	planner        Planner
	applier        deploy.Applier
	history        history.Store
	plans          *PlanStore
	pue            float64
	requestTimeout time.Duration
	now            func() time.Time
}

// Option customizes a Server
type Option func(*Server)

// WithHistory records successful deployments in store
func WithHistory(store history.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithPUE sets the power usage effectiveness used for energy estimates
func WithPUE(pue float64) Option {
	return func(s *Server) {
		s.pue = pue
	}
}

// WithRequestTimeout bounds each planning and deployment request
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithClock replaces the time source used for deployment records
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a server
func New(planner Planner, applier deploy.Applier, plans *PlanStore, opts ...Option) *Server {
	s := &Server{
		planner:        planner,
		applier:        applier,
		plans:          plans,
		pue:            1.0,
		requestTimeout: 15 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for all endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/plans/{id}", s.handleGetPlan)
	mux.HandleFunc("POST /api/deploy", s.handleDeploy)
	mux.HandleFunc("GET /api/analytics/summary", s.handleSummary)
	mux.HandleFunc("GET /api/analytics/plans", s.handleGroupByPlan)
	mux.HandleFunc("GET /api/analytics/regions", s.handleGroupByRegion)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", legacyregistry.Handler())
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req placement.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("request body is not valid JSON"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	result, err := s.planner.Plan(ctx, req)
	if err != nil {
		if errors.Is(err, placement.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		klog.ErrorS(err, "Planning request failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.plans.Put(result.Plans...)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.plans.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("plan not found"))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeployRequest asks for a stored plan to be applied
type DeployRequest struct {
	PlanID  string `json:"planId"`
	Context string `json:"context"`
}

// DeployResponse reports a deployment and the history record it produced
type DeployResponse struct {
	Result *deploy.Result  `json:"result"`
	Record *history.Record `json:"record,omitempty"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("request body is not valid JSON"))
		return
	}
	if req.PlanID == "" {
		writeError(w, http.StatusBadRequest, errors.New("planId is required"))
		return
	}

	plan, ok := s.plans.Get(req.PlanID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("plan not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	result, err := s.applier.Apply(ctx, plan.Document, req.Context)
	if err != nil {
		placement.DeploymentAttempts.WithLabelValues("error").Inc()
		klog.ErrorS(err, "Deployment failed", "planID", plan.ID, "context", req.Context)
		writeJSON(w, http.StatusBadGateway, DeployResponse{Result: result})
		return
	}
	placement.DeploymentAttempts.WithLabelValues("success").Inc()

	resp := DeployResponse{Result: result}
	if s.history != nil {
		rec := history.NewRecord(history.Deployment{
			PlanID:          plan.ID,
			Plan:            string(plan.Strategy),
			Region:          plan.Region,
			CarbonIntensity: plan.Carbon.Value,
			Replicas:        plan.Replicas,
			WattsPerReplica: plan.InstanceClass.Watts,
			CostPerHour:     plan.EstimatedHourlyCost,
		}, s.pue, s.now())
		if err := s.history.Append(ctx, rec); err != nil {
			// the deployment itself succeeded
			klog.ErrorS(err, "Failed to record deployment", "planID", plan.ID)
		} else {
			resp.Record = &rec
		}
	}

	klog.InfoS("Deployed plan",
		"planID", plan.ID,
		"strategy", plan.Strategy,
		"region", plan.Region,
		"context", req.Context)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) ([]history.Record, bool) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("deployment history is disabled"))
		return nil, false
	}
	records, err := s.history.List(r.Context())
	if err != nil {
		klog.ErrorS(err, "Failed to list deployment history")
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return records, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if records, ok := s.records(w, r); ok {
		writeJSON(w, http.StatusOK, history.Summarize(records))
	}
}

func (s *Server) handleGroupByPlan(w http.ResponseWriter, r *http.Request) {
	if records, ok := s.records(w, r); ok {
		writeJSON(w, http.StatusOK, history.GroupByPlan(records))
	}
}

func (s *Server) handleGroupByRegion(w http.ResponseWriter, r *http.Request) {
	if records, ok := s.records(w, r); ok {
		writeJSON(w, http.StatusOK, history.GroupByRegion(records))
	}
}
