package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

const maxBodyBytes = 1 << 20

// Monitor is the read side of the update cycle the API exposes.
type Monitor interface {
	CheckReadiness(ctx context.Context) error
	Latest() (monitor.Update, error)
	Status() monitor.Status
}

// Stream is a live update feed mounted at /ws.
type Stream interface {
	http.Handler
	Clients() int
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	monitor    Monitor
	stream     Stream
	gridAge    float64
	logger     *slog.Logger
}

// NewServer creates an HTTP server for the monitor. The stream is optional;
// without it /ws is not routed.
func NewServer(addr string, mon Monitor, gridAge float64, stream Stream, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		monitor: mon,
		stream:  stream,
		gridAge: gridAge,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(mon))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/current", s.handleCurrent)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/risk-calculation", s.handleRiskCalculation)
	if stream != nil {
		mux.Handle("GET /ws", stream)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	u, err := s.monitor.Latest()
	if err != nil {
		writeMonitorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	u, err := s.monitor.Latest()
	if err != nil {
		writeMonitorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.History.Last(limit))
}

type statusResponse struct {
	monitor.Status
	ConnectedClients int                 `json:"connected_clients"`
	GridAge          float64             `json:"grid_age"`
	Formula          string              `json:"formula"`
	Coefficients     domain.Coefficients `json:"coefficients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status:       s.monitor.Status(),
		GridAge:      s.gridAge,
		Formula:      domain.RiskFormula,
		Coefficients: domain.RiskCoefficients,
	}
	if s.stream != nil {
		resp.ConnectedClients = s.stream.Clients()
	}
	writeJSON(w, http.StatusOK, resp)
}

type riskRequest struct {
	WindSpeed         *float64 `json:"wind_speed"`
	Precipitation     *float64 `json:"precipitation"`
	FloodRisk         *float64 `json:"flood_risk"`
	VegetationDensity *float64 `json:"vegetation_density"`
	GridAge           *float64 `json:"grid_age"`
}

func (req riskRequest) missing() []string {
	var out []string
	if req.WindSpeed == nil {
		out = append(out, "wind_speed")
	}
	if req.Precipitation == nil {
		out = append(out, "precipitation")
	}
	if req.FloodRisk == nil {
		out = append(out, "flood_risk")
	}
	if req.VegetationDensity == nil {
		out = append(out, "vegetation_density")
	}
	return out
}

type riskResponse struct {
	OutageRisk float64          `json:"outage_risk"`
	RiskLevel  domain.RiskLevel `json:"risk_level"`
	GridAge    float64          `json:"grid_age"`
}

func (s *Server) handleRiskCalculation(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if missing := req.missing(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	gridAge := s.gridAge
	if req.GridAge != nil {
		if *req.GridAge < 0 || *req.GridAge > domain.MaxGridAge {
			writeError(w, http.StatusBadRequest, "grid_age must be between 0 and 100 years")
			return
		}
		gridAge = *req.GridAge
	}

	reading := domain.Reading{
		WindSpeed:         *req.WindSpeed,
		Precipitation:     *req.Precipitation,
		FloodRisk:         *req.FloodRisk,
		CycloneCategory:   domain.MinCategory,
		VegetationDensity: *req.VegetationDensity,
	}
	a := domain.Assess(reading, gridAge)
	s.logger.Debug("risk calculated", "score", a.Score, "level", a.Level.String(), "grid_age", gridAge)

	writeJSON(w, http.StatusOK, riskResponse{OutageRisk: a.Score, RiskLevel: a.Level, GridAge: gridAge})
}

func writeMonitorError(w http.ResponseWriter, err error) {
	if errors.Is(err, monitor.ErrNoData) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
