package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tidewatch-sim/internal/fleet"
	"tidewatch-sim/internal/tide"
)

// Server exposes the operator endpoints: a small HTML dashboard, JSON
// snapshots, fleet and per-station controls, and Prometheus metrics.
type Server struct {
	reg *fleet.Registry
	tpl *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(reg *fleet.Registry) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{reg: reg, tpl: tpl}
}

// Handler returns the routed mux. Exposed separately so tests can drive
// it without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/interrupt", s.handleInterrupt)
	mux.HandleFunc("/resume", s.handleResume)
	mux.HandleFunc("/stations/pause", s.stationAction(s.reg.PauseStation))
	mux.HandleFunc("/stations/resume", s.stationAction(s.reg.ResumeStation))
	mux.HandleFunc("/stations/stop", s.stationAction(s.reg.StopStation))
	mux.HandleFunc("/thresholds", s.handleThresholds)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start serves until the listener fails or ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.tpl.Execute(w, s.reg.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.Events())
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	s.reg.Controller().Interrupt(r.Context())
	writeJSON(w, s.reg.Controller().Stats())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.reg.Controller().Resume(r.Context())
	writeJSON(w, s.reg.Controller().Stats())
}

// stationAction adapts a per-station registry operation into a handler
// taking the station from the id query parameter.
func (s *Server) stationAction(op func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id parameter", http.StatusBadRequest)
			return
		}
		if err := op(r.Context(), id); err != nil {
			writeOpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}
	low, err := strconv.ParseFloat(q.Get("low"), 64)
	if err != nil {
		http.Error(w, "invalid low parameter", http.StatusBadRequest)
		return
	}
	high, err := strconv.ParseFloat(q.Get("high"), 64)
	if err != nil {
		http.Error(w, "invalid high parameter", http.StatusBadRequest)
		return
	}
	if err := s.reg.UpdateThresholds(r.Context(), id, low, high); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.reg.Snapshot()
	writeJSON(w, map[string]any{
		"status":   "ok",
		"fleet_id": snap.FleetID,
		"stations": len(snap.Stations),
		"running":  snap.States[fleet.StateRunning],
		"paused":   snap.States[fleet.StatePaused],
		"stopped":  snap.States[fleet.StateStopped],
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fleet.ErrUnknownStation):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fleet.ErrInvariant):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, tide.ErrConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
