// Package yolo implementa el engine de trading automático: un worker en
// background que pide recomendaciones en ciclos y las ejecuta bajo caps
// de gasto y frecuencia.
package yolo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

// Defaults de los caps de seguridad.
const (
	DefaultMaxSpendPerTrade = 5.0
	DefaultMaxTradesPerHour = 3
	DefaultMaxTotalSpend    = 25.0

	defaultCycleWait = 10 * time.Minute
	defaultTradeWait = 10 * time.Second
	recsPerCycle     = 5
)

var ErrAlreadyRunning = errors.New("yolo engine already running")

// Recommender es la fuente de recomendaciones del engine.
type Recommender interface {
	GetRecommendations(ctx context.Context, strategy string, max int, risk string, forceRefresh bool) (domain.ResultSet, error)
}

// Config son los parámetros de una sesión del engine. Los caps a cero
// toman el default; nunca se deshabilitan.
type Config struct {
	Strategy domain.Strategy
	Risk     domain.RiskLevel

	MaxSpendPerTrade float64
	MaxTradesPerHour int
	MaxTotalSpend    float64

	// CycleWait y TradeWait solo se tocan en tests.
	CycleWait time.Duration
	TradeWait time.Duration
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = domain.StrategyHybrid
	}
	if c.Risk == "" {
		c.Risk = domain.RiskMedium
	}
	if c.MaxSpendPerTrade <= 0 {
		c.MaxSpendPerTrade = DefaultMaxSpendPerTrade
	}
	if c.MaxTradesPerHour <= 0 {
		c.MaxTradesPerHour = DefaultMaxTradesPerHour
	}
	if c.MaxTotalSpend <= 0 {
		c.MaxTotalSpend = DefaultMaxTotalSpend
	}
	if c.CycleWait <= 0 {
		c.CycleWait = defaultCycleWait
	}
	if c.TradeWait <= 0 {
		c.TradeWait = defaultTradeWait
	}
}

// Status es el snapshot observable del engine.
type Status struct {
	Running          bool      `json:"running"`
	Strategy         string    `json:"strategy"`
	RiskLevel        string    `json:"risk_level"`
	StartedAt        time.Time `json:"started_at"`
	TotalTrades      int       `json:"total_trades"`
	TotalSpent       float64   `json:"total_spent"`
	TradesThisHour   int       `json:"trades_this_hour"`
	TradedMarkets    int       `json:"traded_markets"`
	MaxSpendPerTrade float64   `json:"max_spend_per_trade"`
	MaxTradesPerHour int       `json:"max_trades_per_hour"`
	MaxTotalSpend    float64   `json:"max_total_spend"`
	LastError        string    `json:"last_error,omitempty"`
}

// Engine ejecuta recomendaciones en background. Una sesión por Engine
// activa como máximo; Start tras Stop arranca una sesión nueva.
type Engine struct {
	recommender Recommender
	executor    ports.OrderExecutor
	storage     ports.TradeStorage
	log         *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	cfg     Config
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	startedAt      time.Time
	totalTrades    int
	totalSpent     float64
	tradesThisHour int
	hourStart      time.Time
	traded         map[string]bool
	lastError      string
}

// NewEngine crea un engine parado. storage puede ser nil (sin histórico).
func NewEngine(recommender Recommender, executor ports.OrderExecutor, storage ports.TradeStorage, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		recommender: recommender,
		executor:    executor,
		storage:     storage,
		log:         log,
		now:         time.Now,
	}
}

// Start arranca una sesión con la config dada. Falla si ya hay una activa.
func (e *Engine) Start(cfg Config) error {
	cfg.applyDefaults()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("yolo.Engine.Start: %w", ErrAlreadyRunning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cfg = cfg
	e.running = true
	e.cancel = cancel
	e.done = make(chan struct{})
	e.startedAt = e.now()
	e.totalTrades = 0
	e.totalSpent = 0
	e.tradesThisHour = 0
	e.hourStart = e.now()
	e.traded = make(map[string]bool)
	e.lastError = ""

	e.log.Info("yolo engine started",
		"strategy", cfg.Strategy, "risk", cfg.Risk,
		"max_spend_per_trade", cfg.MaxSpendPerTrade,
		"max_trades_per_hour", cfg.MaxTradesPerHour,
		"max_total_spend", cfg.MaxTotalSpend)

	go e.run(ctx)
	return nil
}

// Stop cancela la sesión activa y espera a que el worker termine. Guarda
// el resumen de la sesión si hay storage. Idempotente.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	summary := ports.RunSummary{
		StartedAt:   e.startedAt,
		StoppedAt:   e.now(),
		Strategy:    string(e.cfg.Strategy),
		RiskLevel:   string(e.cfg.Risk),
		TotalTrades: e.totalTrades,
		TotalSpent:  e.totalSpent,
	}
	e.running = false
	storage := e.storage
	e.mu.Unlock()

	if storage != nil {
		if err := storage.SaveRunSummary(ctx, summary); err != nil {
			e.log.Warn("failed to save run summary", "err", err)
		}
	}
	e.log.Info("yolo engine stopped",
		"total_trades", summary.TotalTrades, "total_spent", summary.TotalSpent)
}

// Status devuelve un snapshot consistente del estado actual.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Running:          e.running,
		Strategy:         string(e.cfg.Strategy),
		RiskLevel:        string(e.cfg.Risk),
		StartedAt:        e.startedAt,
		TotalTrades:      e.totalTrades,
		TotalSpent:       e.totalSpent,
		TradesThisHour:   e.tradesThisHour,
		TradedMarkets:    len(e.traded),
		MaxSpendPerTrade: e.cfg.MaxSpendPerTrade,
		MaxTradesPerHour: e.cfg.MaxTradesPerHour,
		MaxTotalSpend:    e.cfg.MaxTotalSpend,
		LastError:        e.lastError,
	}
}

// run es el loop del worker: un ciclo de recomendación, ejecución bajo
// caps, y espera. Toda espera respeta la cancelación del contexto.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	for {
		e.cycle(ctx)
		if !e.wait(ctx, e.cfg.CycleWait) {
			return
		}
	}
}

// cycle pide un set fresco y ejecuta lo que pase los filtros.
func (e *Engine) cycle(ctx context.Context) {
	e.resetHourIfNeeded()

	set, err := e.recommender.GetRecommendations(ctx, string(e.cfg.Strategy), recsPerCycle, string(e.cfg.Risk), true)
	if err != nil {
		e.setError(fmt.Sprintf("fetching recommendations: %v", err))
		return
	}

	for _, rec := range set.Recommendations {
		if ctx.Err() != nil {
			return
		}
		if skip, reason := e.shouldSkip(rec); skip {
			e.log.Debug("recommendation skipped", "market_id", rec.MarketID, "reason", reason)
			continue
		}
		if err := e.execute(ctx, rec); err != nil {
			e.setError(fmt.Sprintf("executing %s: %v", rec.MarketID, err))
			continue
		}
		if !e.wait(ctx, e.cfg.TradeWait) {
			return
		}
	}
}

// shouldSkip aplica los filtros de seguridad a una recomendación.
func (e *Engine) shouldSkip(rec domain.Recommendation) (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.tradesThisHour >= e.cfg.MaxTradesPerHour:
		return true, "hourly trade cap reached"
	case e.totalSpent+rec.Cost > e.cfg.MaxTotalSpend:
		return true, "total spend cap reached"
	case rec.Cost > e.cfg.MaxSpendPerTrade:
		return true, "cost above per-trade cap"
	case rec.Confidence == domain.ConfidenceLow && e.cfg.Risk != domain.RiskHigh:
		return true, "low confidence"
	case e.traded[rec.MarketID]:
		return true, "market already traded this session"
	case !domain.IsTargetMarket(rec.MarketID):
		return true, "market outside target series"
	}
	return false, ""
}

// execute envía la orden, actualiza contadores y persiste el trade.
func (e *Engine) execute(ctx context.Context, rec domain.Recommendation) error {
	order, err := e.executor.CreateOrder(ctx, ports.OrderRequest{
		MarketID:      rec.MarketID,
		Side:          rec.Action,
		Count:         rec.Contracts,
		Price:         int(math.Round(rec.Probability)),
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.totalTrades++
	e.tradesThisHour++
	e.totalSpent += rec.Cost
	e.traded[rec.MarketID] = true
	e.mu.Unlock()

	e.log.Info("trade executed",
		"order_id", order.OrderID, "market_id", rec.MarketID,
		"action", rec.Action, "contracts", rec.Contracts, "cost", rec.Cost)

	if e.storage != nil {
		trade := ports.ExecutedTrade{
			OrderID:     order.OrderID,
			MarketID:    rec.MarketID,
			MarketTitle: rec.MarketTitle,
			Action:      string(rec.Action),
			Contracts:   rec.Contracts,
			Cost:        rec.Cost,
			Probability: rec.Probability,
			Confidence:  string(rec.Confidence),
			Strategy:    string(rec.Strategy),
			RiskLevel:   string(e.cfg.Risk),
			ExecutedAt:  e.now(),
		}
		if err := e.storage.SaveTrade(ctx, trade); err != nil {
			e.log.Warn("failed to persist trade", "order_id", order.OrderID, "err", err)
		}
	}
	return nil
}

// resetHourIfNeeded reinicia el contador horario cuando pasa una hora.
func (e *Engine) resetHourIfNeeded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.now().Sub(e.hourStart) >= time.Hour {
		e.tradesThisHour = 0
		e.hourStart = e.now()
	}
}

// wait duerme la duración dada salvo cancelación. Devuelve false si el
// contexto se canceló durante la espera.
func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) setError(msg string) {
	e.mu.Lock()
	e.lastError = msg
	e.mu.Unlock()
	e.log.Warn("yolo engine: " + msg)
}
