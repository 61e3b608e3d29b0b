package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/attendlabs/attendd/internal/attend/store"
)

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	Records store.AttendanceStore
	Runs    store.SyncRunStore

	// MonitorState reports the live monitor's connection state.  Nil when
	// the API runs without a monitor (the serve command).
	MonitorState func() string
}

// Server is the read-only JSON API over stored attendance data.
type Server struct {
	httpServer   *http.Server
	logger       *log.Logger
	records      store.AttendanceStore
	runs         store.SyncRunStore
	monitorState func() string
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:       d.Logger,
		records:      d.Records,
		runs:         d.Runs,
		monitorState: d.MonitorState,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/v1/records", s.handleListRecords).Methods("GET")
	r.HandleFunc("/v1/sync_runs/latest", s.handleLatestRun).Methods("GET")
	r.HandleFunc("/v1/status", s.handleStatus).Methods("GET")

	handler := handlers.LoggingHandler(d.Logger.Writer(), r)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{
		PersonID: r.URL.Query().Get("person"),
		Limit:    100,
	}

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_since", "since must be RFC3339")
			return
		}
		f.Since = t
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be 1-1000")
			return
		}
		f.Limit = n
	}

	recs, err := s.records.List(r.Context(), f)
	if err != nil {
		s.logger.Printf("list records: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, ok, err := s.runs.LatestRun(r.Context())
	if err != nil {
		s.logger.Printf("latest sync run: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no_runs", "no sync runs recorded")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state := "not_running"
	if s.monitorState != nil {
		state = s.monitorState()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"monitor":     state,
		"server_time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
