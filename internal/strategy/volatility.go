package strategy

import (
	"fmt"
	"math"

	"github.com/dmorell/kalshibot/internal/domain"
)

const (
	// defaultVolatilityBaseline es la desviación estándar "esperada" en
	// puntos de precio contra la que se compara la observada. Tunable,
	// heredado como constante de calibración y no una verdad del dominio.
	defaultVolatilityBaseline = 5.0

	// volRatioThreshold: stddev/baseline por encima de esto es alta volatilidad.
	volRatioThreshold = 1.5

	// deviationThreshold: desviaciones estándar desde la media a partir de
	// las cuales se espera reversión (si no hay trend claro).
	deviationThreshold = 1.5

	// trendWindow son las observaciones recientes que definen el trend.
	trendWindow = 5
)

// Volatility opera mercados con volatilidad inusual. El mismo señal de
// alta volatilidad produce trades opuestos: sin trend claro y lejos de la
// media, apuesta a la reversión hacia la media; con trend monótono
// reciente, apuesta a la continuación.
type Volatility struct {
	baseline float64
}

// NewVolatility crea el scorer; baseline <=0 usa el default de 5.0.
func NewVolatility(baseline float64) *Volatility {
	if baseline <= 0 {
		baseline = defaultVolatilityBaseline
	}
	return &Volatility{baseline: baseline}
}

func (s *Volatility) Name() domain.Strategy { return domain.StrategyVolatility }

// volMetrics son las estadísticas de una serie corta de precios.
type volMetrics struct {
	current   int
	mean      float64
	stddev    float64
	uptrend   bool
	downtrend bool
	highVol   bool
	reversion bool
}

// Analyze requiere historia de precios por mercado; si el side-channel no
// la trae, se sintetiza una serie determinista a partir del precio actual.
func (s *Volatility) Analyze(in Input) []domain.Recommendation {
	if len(in.Markets) == 0 {
		return nil
	}

	history := in.History
	if history == nil {
		history = SynthesizeHistory(in.Markets)
	}

	var recs []domain.Recommendation
	for _, m := range in.Markets {
		prices, ok := history[m.ID]
		if !ok || len(prices) == 0 {
			continue
		}

		v := s.metrics(m, prices)
		if !v.highVol {
			continue
		}

		if v.reversion {
			recs = append(recs, s.reversionTrade(m, v)...)
		} else {
			recs = append(recs, s.continuationTrade(m, v))
		}
	}
	return recs
}

// metrics calcula media, desviación y trend de la serie.
func (s *Volatility) metrics(m domain.Market, prices []int) volMetrics {
	current := m.YesBid
	if current == 0 {
		current = 50 // sin bid: asumimos el centro explícitamente
	}

	mean := meanInt(prices)
	stddev := s.baseline
	if len(prices) > 1 {
		stddev = stddevInt(prices, mean)
	}

	recent := prices
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	uptrend, downtrend := true, true
	for i := 0; i < len(recent)-1; i++ {
		if recent[i] > recent[i+1] {
			uptrend = false
		}
		if recent[i] < recent[i+1] {
			downtrend = false
		}
	}

	highVol := stddev/s.baseline > volRatioThreshold
	deviation := 0.0
	if stddev > 0 {
		deviation = math.Abs(float64(current)-mean) / stddev
	}
	reversion := deviation > deviationThreshold && !(uptrend || downtrend)

	return volMetrics{
		current:   current,
		mean:      mean,
		stddev:    stddev,
		uptrend:   uptrend,
		downtrend: downtrend,
		highVol:   highVol,
		reversion: reversion,
	}
}

// reversionTrade apuesta a la vuelta hacia la media cuando el precio se
// alejó más de una desviación.
func (s *Volatility) reversionTrade(m domain.Market, v volMetrics) []domain.Recommendation {
	cur := float64(v.current)
	switch {
	case cur > v.mean+v.stddev:
		// Precio alto: reversión hacia abajo.
		return []domain.Recommendation{{
			MarketID:    m.ID,
			MarketTitle: m.Title,
			Action:      domain.ActionNo,
			Contracts:   1,
			Probability: float64(100 - v.current),
			Cost:        round2(float64(m.NoAsk) / 100.0),
			TargetExit:  round1(v.mean),
			StopLoss:    cur + 10,
			Confidence:  domain.ConfidenceMedium,
			Rationale: fmt.Sprintf(
				"High volatility with price significantly above average (%d¢ vs %.1f¢). Expecting mean reversion.",
				v.current, v.mean),
			Strategy: domain.StrategyVolatility,
		}}
	case cur < v.mean-v.stddev:
		// Precio bajo: reversión hacia arriba.
		return []domain.Recommendation{{
			MarketID:    m.ID,
			MarketTitle: m.Title,
			Action:      domain.ActionYes,
			Contracts:   1,
			Probability: float64(m.YesAsk),
			Cost:        round2(float64(m.YesAsk) / 100.0),
			TargetExit:  round1(v.mean),
			StopLoss:    cur - 10,
			Confidence:  domain.ConfidenceMedium,
			Rationale: fmt.Sprintf(
				"High volatility with price significantly below average (%d¢ vs %.1f¢). Expecting mean reversion.",
				v.current, v.mean),
			Strategy: domain.StrategyVolatility,
		}}
	}
	return nil
}

// continuationTrade sigue el trend reciente: uptrend compra YES, cualquier
// otro caso apuesta a la continuación a la baja.
func (s *Volatility) continuationTrade(m domain.Market, v volMetrics) domain.Recommendation {
	cur := float64(v.current)
	if v.uptrend {
		return domain.Recommendation{
			MarketID:    m.ID,
			MarketTitle: m.Title,
			Action:      domain.ActionYes,
			Contracts:   1,
			Probability: float64(m.YesAsk),
			Cost:        round2(float64(m.YesAsk) / 100.0),
			TargetExit:  cur + 10,
			StopLoss:    cur - 5,
			Confidence:  domain.ConfidenceMedium,
			Rationale:   "High volatility with strong uptrend. Momentum suggests continued price increase.",
			Strategy:    domain.StrategyVolatility,
		}
	}
	return domain.Recommendation{
		MarketID:    m.ID,
		MarketTitle: m.Title,
		Action:      domain.ActionNo,
		Contracts:   1,
		Probability: float64(100 - v.current),
		Cost:        round2(float64(m.NoAsk) / 100.0),
		TargetExit:  cur - 10,
		StopLoss:    cur + 5,
		Confidence:  domain.ConfidenceMedium,
		Rationale:   "High volatility with strong downtrend. Momentum suggests continued price decrease.",
		Strategy:    domain.StrategyVolatility,
	}
}

// SynthesizeHistory genera una serie determinista de 10 precios por mercado
// alrededor del bid actual, con variación -5/0/+5 cíclica. Sirve como
// fallback cuando no hay feed histórico; al ser determinista los tests no
// necesitan seed.
func SynthesizeHistory(markets []domain.Market) map[string][]int {
	history := make(map[string][]int, len(markets))
	for _, m := range markets {
		base := m.YesBid
		if base == 0 {
			base = 50
		}
		prices := make([]int, 0, 10)
		for i := 0; i < 10; i++ {
			delta := (i%3 - 1) * 5 // -5, 0, +5
			price := base + delta
			if price < 5 {
				price = 5
			}
			if price > 95 {
				price = 95
			}
			prices = append(prices, price)
			base = price
		}
		history[m.ID] = prices
	}
	return history
}

func meanInt(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

// stddevInt es la desviación estándar muestral (divisor n-1).
func stddevInt(vals []int, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := float64(v) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
