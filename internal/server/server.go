package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threatwatch/internal/hub"
	"threatwatch/internal/ledger"
	"threatwatch/internal/metrics"
	"threatwatch/internal/notify"
	"threatwatch/internal/phishing"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/store"
)

// Server wires the HTTP and websocket boundaries to the core pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	scorer   *phishing.Scorer
	hub      *hub.Hub
	notifier *notify.Notifier
	logger   *ledger.IntegrityLogger
	router   *mux.Router
}

func New(p *pipeline.Pipeline, scorer *phishing.Scorer, h *hub.Hub, n *notify.Notifier, l *ledger.IntegrityLogger) *Server {
	s := &Server{pipeline: p, scorer: scorer, hub: h, notifier: n, logger: l, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/v1/threats/report", s.handleReport).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/threats/{id}/verify", s.handleVerify).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/scan/url", s.handleScanURL).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/scan/email", s.handleScanEmail).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/scan/content", s.handleScanContent).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/notifications", s.handleNotifications).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/ledger/stats", s.handleLedgerStats).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/{user_id}", s.handleWebSocket)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) StartMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
}

// identity returns the authenticated caller identity supplied by the request
// boundary.
func identity(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var sub pipeline.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.Title == "" || sub.Description == "" {
		writeError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	res, err := s.pipeline.Submit(r.Context(), sub, userID)
	if err != nil {
		slog.Error("submission failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	verified, err := s.pipeline.Verify(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "threat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threat_id": id, "verified": verified})
}

func (s *Server) handleScanURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	start := time.Now()
	a := s.scorer.ScoreURL(req.URL)
	observeScan("url", start, a)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleScanEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailBody string `json:"email_body"`
		Sender    string `json:"sender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmailBody == "" {
		writeError(w, http.StatusBadRequest, "email_body is required")
		return
	}

	start := time.Now()
	a := s.scorer.ScoreEmail(req.EmailBody, req.Sender)
	observeScan("email", start, a)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleScanContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	start := time.Now()
	a := phishing.ScoreContent(req.Content, req.Filename)
	observeScan("content", start, a)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	list, err := s.notifier.Recent(r.Context(), userID, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLedgerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.logger.Stats(r.Context()))
}

func observeScan(kind string, start time.Time, a phishing.Assessment) {
	metrics.ScanDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.Scans.WithLabelValues(kind, string(a.RiskLevel)).Inc()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
