package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
	"github.com/dmorell/kalshibot/internal/strategy"
)

// defaultMax es el tamaño del set cuando el caller no pide otro.
const defaultMax = 5

// Cache abstrae la caché de ResultSets por (estrategia, riesgo). Un miss
// por expiración y un miss por ausencia son indistinguibles para el caller.
type Cache interface {
	Get(strat domain.Strategy, risk domain.RiskLevel) (domain.ResultSet, bool)
	Put(set domain.ResultSet) error
}

// Recorder persiste recomendaciones recién generadas como entradas abiertas
// del ledger de rendimiento.
type Recorder interface {
	Record(rec domain.Recommendation) (domain.PerformanceRecord, error)
}

// ServiceConfig agrupa las dependencias del servicio. Markets es
// obligatorio; el resto son opcionales y el servicio degrada sin ellas.
type ServiceConfig struct {
	Markets   ports.MarketProvider
	Sentiment ports.SentimentProvider

	// Models es la cadena de fallback para momentum, mean-reversion y
	// hybrid, en orden de prioridad. El último elemento debería ser el
	// modelo rule-based, que nunca falla.
	Models []ports.Model

	Cache    Cache
	Recorder Recorder

	Phrases            *strategy.Phrases
	ArbitrageMargin    int
	VolatilityBaseline float64

	Logger *slog.Logger
	Now    func() time.Time
}

// Service orquesta un ciclo completo de recomendación: caché, fetch de
// mercados, filtro horario, dispatch por estrategia, blend y persistencia.
type Service struct {
	markets   ports.MarketProvider
	sentiment ports.SentimentProvider
	models    []ports.Model
	cache     Cache
	recorder  Recorder

	arb  *strategy.Arbitrage
	vol  *strategy.Volatility
	sent *strategy.Sentiment

	log *slog.Logger
	now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	phrases := cfg.Phrases
	if phrases == nil {
		phrases = strategy.NewPhrases(time.Now().UnixNano())
	}
	models := cfg.Models
	if len(models) == 0 {
		models = []ports.Model{NewRuleBased(phrases)}
	}
	return &Service{
		markets:   cfg.Markets,
		sentiment: cfg.Sentiment,
		models:    models,
		cache:     cfg.Cache,
		recorder:  cfg.Recorder,
		arb:       strategy.NewArbitrage(cfg.ArbitrageMargin),
		vol:       strategy.NewVolatility(cfg.VolatilityBaseline),
		sent:      strategy.NewSentiment(),
		log:       log,
		now:       now,
	}
}

// GetRecommendations ejecuta un ciclo para la estrategia y riesgo pedidos.
// forceRefresh salta la lectura de caché pero no la escritura. Los fallos
// de datos upstream degradan a un set vacío; solo los argumentos inválidos
// devuelven error.
func (s *Service) GetRecommendations(ctx context.Context, strategyName string, max int, riskName string, forceRefresh bool) (domain.ResultSet, error) {
	strat, err := domain.ParseStrategy(strategyName)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("recommend.Service.GetRecommendations: %w", err)
	}
	risk, err := domain.ParseRiskLevel(riskName)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("recommend.Service.GetRecommendations: %w", err)
	}
	if max <= 0 {
		max = defaultMax
	}

	if s.cache != nil && !forceRefresh {
		if set, ok := s.cache.Get(strat, risk); ok {
			if len(set.Recommendations) > max {
				set.Recommendations = set.Recommendations[:max]
			}
			set.Cached = true
			s.log.Debug("recommendations served from cache",
				"strategy", strat, "risk", risk, "count", len(set.Recommendations))
			return set, nil
		}
	}

	markets := s.fetchMarkets(ctx)
	hourly := domain.FilterHourly(markets, s.now())

	lists, source := s.dispatch(ctx, hourly, strat, max, risk)
	blended := Blend(lists, max, risk)

	set := domain.ResultSet{
		Recommendations: blended,
		Timestamp:       s.now(),
		Source:          source,
		Strategy:        strat,
		RiskLevel:       risk,
	}

	if s.recorder != nil {
		for _, rec := range blended {
			if _, err := s.recorder.Record(rec); err != nil {
				s.log.Warn("failed to record recommendation in ledger",
					"market_id", rec.MarketID, "err", err)
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.Put(set); err != nil {
			s.log.Warn("failed to write recommendation cache",
				"strategy", strat, "risk", risk, "err", err)
		}
	}

	s.log.Info("recommendation cycle complete",
		"strategy", strat, "risk", risk, "source", source,
		"candidates", len(hourly), "count", len(blended))
	return set, nil
}

// fetchMarkets obtiene mercados del provider. Un fallo upstream degrada a
// lista vacía; el ciclo sigue y produce un set vacío en lugar de fallar.
func (s *Service) fetchMarkets(ctx context.Context) []domain.Market {
	if s.markets == nil {
		return nil
	}
	markets, err := s.markets.GetMarkets(ctx)
	if err != nil {
		s.log.Warn("market fetch failed, degrading to empty cycle", "err", err)
		return nil
	}
	return markets
}

// dispatch produce las listas de candidatos en orden determinista y la
// procedencia del ciclo. Para las estrategias respaldadas por modelo
// recorre la cadena de fallback; para el resto ejecuta los scorers.
func (s *Service) dispatch(ctx context.Context, markets []domain.Market, strat domain.Strategy, max int, risk domain.RiskLevel) ([][]domain.Recommendation, string) {
	switch strat {
	case domain.StrategyMomentum, domain.StrategyMeanReversion, domain.StrategyHybrid:
		return s.fromModels(ctx, markets, strat, max, risk)
	case domain.StrategyArbitrage:
		return [][]domain.Recommendation{
			s.analyze(s.arb, strategy.Input{Markets: markets, Max: max, Risk: risk}),
		}, string(strat)
	case domain.StrategyVolatility:
		in := strategy.Input{
			Markets: markets,
			History: strategy.SynthesizeHistory(markets),
			Max:     max,
			Risk:    risk,
		}
		return [][]domain.Recommendation{s.analyze(s.vol, in)}, string(strat)
	case domain.StrategySentiment:
		in := strategy.Input{
			Markets:   markets,
			Sentiment: s.fetchSentiment(ctx),
			Max:       max,
			Risk:      risk,
		}
		return [][]domain.Recommendation{s.analyze(s.sent, in)}, string(strat)
	case domain.StrategyCombined:
		senti := s.fetchSentiment(ctx)
		return [][]domain.Recommendation{
			s.analyze(s.arb, strategy.Input{Markets: markets, Max: max, Risk: risk}),
			s.analyze(s.vol, strategy.Input{Markets: markets, History: strategy.SynthesizeHistory(markets), Max: max, Risk: risk}),
			s.analyze(s.sent, strategy.Input{Markets: markets, Sentiment: senti, Max: max, Risk: risk}),
		}, string(strat)
	}
	return nil, "none"
}

// fromModels recorre la cadena de modelos y se queda con el primero que
// produce candidatos. Un error o una respuesta vacía ceden el turno al
// siguiente; si la cadena entera se agota el ciclo degrada a vacío.
func (s *Service) fromModels(ctx context.Context, markets []domain.Market, strat domain.Strategy, max int, risk domain.RiskLevel) ([][]domain.Recommendation, string) {
	for _, m := range s.models {
		recs, err := m.Generate(ctx, markets, strat, max, risk)
		if err != nil {
			s.log.Warn("model failed, trying next in chain",
				"model", m.Name(), "strategy", strat, "err", err)
			continue
		}
		if len(recs) == 0 {
			s.log.Debug("model returned nothing, trying next in chain",
				"model", m.Name(), "strategy", strat)
			continue
		}
		return [][]domain.Recommendation{recs}, m.Name()
	}
	s.log.Warn("model chain exhausted, returning empty set", "strategy", strat)
	return nil, "none"
}

// analyze ejecuta un scorer aislando cualquier pánico: un scorer roto
// cuenta como lista vacía, nunca tumba el ciclo.
func (s *Service) analyze(sc strategy.Scorer, in strategy.Input) (recs []domain.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scorer panicked", "scorer", sc.Name(), "panic", r)
			recs = nil
		}
	}()
	return sc.Analyze(in)
}

func (s *Service) fetchSentiment(ctx context.Context) map[domain.Series]domain.SeriesSentiment {
	if s.sentiment == nil {
		return nil
	}
	senti, err := s.sentiment.SeriesSentiment(ctx)
	if err != nil {
		s.log.Warn("failed to fetch feed sentiment", "err", err)
		return nil
	}
	return senti
}
