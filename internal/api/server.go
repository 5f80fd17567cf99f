package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"errgate/internal/config"
	"errgate/internal/model"
)

// Cache is the read/admin surface the API exposes over the
// deduplicator.
type Cache interface {
	Stats() model.Stats
	MostFrequent(limit int) []model.Entry
	MostRecent(limit int) []model.Entry
	ByCode(code string) []model.Entry
	BySeverity(sev model.Severity) []model.Entry
	ClearExpired() int
	Clear()
}

type Server struct {
	cfg     *config.Manager
	cache   Cache
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status     string       `json:"status"`
	Time       string       `json:"time"`
	Version    string       `json:"version"`
	ConfigPath string       `json:"config_path"`
	Dedup      dedupStatus  `json:"dedup"`
	Ingest     ingestStatus `json:"ingest"`
	API        apiStatus    `json:"api"`
}

type dedupStatus struct {
	Enabled             bool    `json:"enabled"`
	TTL                 string  `json:"ttl"`
	MaxSize             int     `json:"max_size"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type ingestStatus struct {
	REST     bool `json:"rest"`
	Kafka    bool `json:"kafka"`
	FileTail bool `json:"file_tail"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func Start(ctx context.Context, cfg *config.Manager, cache Cache, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{cfg: cfg, cache: cache, logger: logger, version: version}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/stats", server.handleStats)
	mux.HandleFunc("/errors/frequent", server.handleFrequent)
	mux.HandleFunc("/errors/recent", server.handleRecent)
	mux.HandleFunc("/errors/by-code/", server.handleByCode)
	mux.HandleFunc("/errors/by-severity/", server.handleBySeverity)
	mux.HandleFunc("/admin/clear", server.handleClear)
	mux.HandleFunc("/admin/sweep", server.handleSweep)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		Dedup: dedupStatus{
			Enabled:             cfg.Dedup.Enabled,
			TTL:                 cfg.Cache.TTL().String(),
			MaxSize:             cfg.Cache.MaxSize,
			SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		},
		Ingest: ingestStatus{
			REST:     cfg.Ingest.REST.Enabled,
			Kafka:    cfg.Ingest.Kafka.Enabled,
			FileTail: cfg.Ingest.FileTail.Enabled,
		},
		API: apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleFrequent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.cache.MostFrequent(queryLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{"errors": entries, "count": len(entries)})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := s.cache.MostRecent(queryLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{"errors": entries, "count": len(entries)})
}

func (s *Server) handleByCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/errors/by-code/")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	entries := s.cache.ByCode(code)
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "errors": entries, "count": len(entries)})
}

func (s *Server) handleBySeverity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sev := model.Severity(strings.ToLower(strings.TrimPrefix(r.URL.Path, "/errors/by-severity/")))
	switch sev {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	entries := s.cache.BySeverity(sev)
	writeJSON(w, http.StatusOK, map[string]any{"severity": sev, "errors": entries, "count": len(entries)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	removed := s.cache.ClearExpired()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "removed": removed})
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
