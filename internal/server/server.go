// Package server expone el advisor como API HTTP JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmorell/kalshibot/internal/application/yolo"
	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/performance"
	"github.com/dmorell/kalshibot/internal/ports"
)

// Recommender es la dependencia principal del API.
type Recommender interface {
	GetRecommendations(ctx context.Context, strategy string, max int, risk string, forceRefresh bool) (domain.ResultSet, error)
}

// Server agrupa las dependencias de los handlers. Tracker, sentiment y
// engine son opcionales; sus rutas devuelven 503 si faltan.
type Server struct {
	recommender Recommender
	tracker     *performance.Tracker
	sentiment   ports.SentimentProvider
	engine      *yolo.Engine
	log         *slog.Logger
}

func New(recommender Recommender, tracker *performance.Tracker, sentiment ports.SentimentProvider, engine *yolo.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		recommender: recommender,
		tracker:     tracker,
		sentiment:   sentiment,
		engine:      engine,
		log:         log,
	}
}

// Router monta todas las rutas bajo /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/strategies", s.handleStrategies)
		r.Get("/recommendations", s.handleRecommendations)

		r.Route("/performance", func(r chi.Router) {
			r.Get("/", s.handlePerformanceWindow)
			r.Get("/summary", s.handlePerformanceSummary)
			r.Get("/recommendations", s.handlePerformanceRecords)
			r.Post("/record", s.handlePerformanceRecord)
			r.Put("/{id}/status", s.handlePerformanceUpdate)
			r.Get("/{strategy}", s.handlePerformanceStrategy)
		})

		r.Get("/sentiment", s.handleSentiment)
		r.Get("/sentiment/{series}", s.handleSentimentSeries)

		r.Route("/yolo", func(r chi.Router) {
			r.Post("/start", s.handleYoloStart)
			r.Post("/stop", s.handleYoloStop)
			r.Get("/status", s.handleYoloStatus)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "kalshibot-advisor",
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"strategies":  domain.Strategies,
		"risk_levels": []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh},
	})
}

// handleRecommendations ejecuta un ciclo de recomendación.
// Query params: strategy, risk, max, force_refresh.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	strategy := q.Get("strategy")
	if strategy == "" {
		strategy = string(domain.StrategyHybrid)
	}
	risk := q.Get("risk")
	if risk == "" {
		risk = string(domain.RiskMedium)
	}
	max := parseIntParam(r, "max", 0)
	force := q.Get("force_refresh") == "true"

	set, err := s.recommender.GetRecommendations(r.Context(), strategy, max, risk, force)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (s *Server) handlePerformanceRecord(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	var rec domain.Recommendation
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if _, err := domain.ParseStrategy(string(rec.Strategy)); err != nil {
		s.respondDomainError(w, err)
		return
	}
	record, err := s.tracker.Record(rec)
	if err != nil {
		s.log.Error("failed to record recommendation", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to record")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

// ExitPrice es puntero para distinguir un 0 legítimo de su ausencia.
type statusUpdatePayload struct {
	Status    string   `json:"status"`
	ExitPrice *float64 `json:"exit_price"`
	Notes     string   `json:"notes"`
}

func (s *Server) handlePerformanceUpdate(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	var payload statusUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	ok, err := s.tracker.UpdateStatus(id, domain.Status(payload.Status), payload.ExitPrice, payload.Notes)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "record not found: "+id)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"updated": true, "id": id})
}

func (s *Server) handlePerformanceStrategy(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	strategy := chi.URLParam(r, "strategy")
	perf, err := s.tracker.StrategyPerformance(domain.Strategy(strategy))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, perf)
}

// handlePerformanceWindow devuelve métricas en ventana.
// Query params: strategy (default all), timeframe (default all).
func (s *Server) handlePerformanceWindow(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		strategy = "all"
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = performance.TimeframeAll
	}
	metrics, err := s.tracker.Timeframe(strategy, timeframe)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handlePerformanceSummary(w http.ResponseWriter, _ *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	respondJSON(w, http.StatusOK, s.tracker.Summary())
}

// handlePerformanceRecords lista registros del ledger.
// Query params: strategy (default all), status, limit, offset.
func (s *Server) handlePerformanceRecords(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "performance tracking disabled")
		return
	}
	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		strategy = "all"
	}
	records, err := s.tracker.Recommendations(strategy, r.URL.Query().Get("status"),
		parseIntParam(r, "limit", 50), parseIntParam(r, "offset", 0))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"recommendations": records, "count": len(records)})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if s.sentiment == nil {
		respondError(w, http.StatusServiceUnavailable, "social feed disabled")
		return
	}
	senti, err := s.sentiment.SeriesSentiment(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "social feed unavailable: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, senti)
}

func (s *Server) handleSentimentSeries(w http.ResponseWriter, r *http.Request) {
	if s.sentiment == nil {
		respondError(w, http.StatusServiceUnavailable, "social feed disabled")
		return
	}
	senti, err := s.sentiment.SeriesSentiment(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "social feed unavailable: "+err.Error())
		return
	}
	series := domain.Series(chi.URLParam(r, "series"))
	agg, ok := senti[series]
	if !ok {
		respondError(w, http.StatusNotFound, "no data for series: "+string(series))
		return
	}
	respondJSON(w, http.StatusOK, agg)
}

type yoloStartPayload struct {
	Strategy         string  `json:"strategy"`
	RiskLevel        string  `json:"risk_level"`
	MaxSpendPerTrade float64 `json:"max_spend_per_trade"`
	MaxTradesPerHour int     `json:"max_trades_per_hour"`
	MaxTotalSpend    float64 `json:"max_total_spend"`
}

func (s *Server) handleYoloStart(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "yolo engine disabled")
		return
	}
	var payload yoloStartPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}
	cfg := yolo.Config{
		MaxSpendPerTrade: payload.MaxSpendPerTrade,
		MaxTradesPerHour: payload.MaxTradesPerHour,
		MaxTotalSpend:    payload.MaxTotalSpend,
	}
	if payload.Strategy != "" {
		strat, err := domain.ParseStrategy(payload.Strategy)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		cfg.Strategy = strat
	}
	if payload.RiskLevel != "" {
		risk, err := domain.ParseRiskLevel(payload.RiskLevel)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		cfg.Risk = risk
	}

	if err := s.engine.Start(cfg); err != nil {
		if errors.Is(err, yolo.ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, "engine already running")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleYoloStop(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "yolo engine disabled")
		return
	}
	s.engine.Stop(r.Context())
	respondJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleYoloStatus(w http.ResponseWriter, _ *http.Request) {
	if s.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "yolo engine disabled")
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Status())
}

// respondDomainError mapea los errores de dominio a códigos HTTP.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidStrategy),
		errors.Is(err, domain.ErrInvalidRiskLevel),
		errors.Is(err, performance.ErrInvalidTimeframe):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("unmapped error in API handler", "err", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
