package strategy

import (
	"fmt"
	"sort"

	"github.com/dmorell/kalshibot/internal/domain"
)

// defaultArbitrageMargin es el margen de seguridad: una pareja de piernas
// solo cuenta como arbitraje si su coste combinado queda por debajo de
// 100 - 5 centavos. Tunable, no una verdad del dominio.
const defaultArbitrageMargin = 95

// arbHighProfitCents: por encima de este gap la confianza escala a High.
const arbHighProfitCents = 10

// Arbitrage busca mispricing entre mercados relacionados de la misma serie.
// En familias de rango revisa parejas de strikes adyacentes; en familias de
// índice busca violaciones de monotonía (a menor strike, mayor o igual
// probabilidad YES).
type Arbitrage struct {
	margin int
}

// NewArbitrage crea el scorer con el margen dado; <=0 usa el default de 95.
func NewArbitrage(margin int) *Arbitrage {
	if margin <= 0 {
		margin = defaultArbitrageMargin
	}
	return &Arbitrage{margin: margin}
}

func (s *Arbitrage) Name() domain.Strategy { return domain.StrategyArbitrage }

// Analyze agrupa por serie y emite las dos piernas de cada oportunidad.
func (s *Arbitrage) Analyze(in Input) []domain.Recommendation {
	if len(in.Markets) == 0 {
		return nil
	}

	// Agrupar por serie preservando orden de aparición de las series.
	groups := make(map[domain.Series][]domain.Market)
	var order []domain.Series
	for _, m := range in.Markets {
		series := domain.SeriesOf(m.ID)
		if series == "" {
			continue
		}
		if _, ok := groups[series]; !ok {
			order = append(order, series)
		}
		groups[series] = append(groups[series], m)
	}

	var recs []domain.Recommendation
	for _, series := range order {
		markets := groups[series]
		if len(markets) < 2 {
			continue
		}
		switch {
		case domain.IsRangeSeries(series):
			recs = append(recs, s.rangePairs(markets)...)
		case domain.IsIndexSeries(series):
			recs = append(recs, s.indexPairs(markets)...)
		}
	}
	return recs
}

// rangePairs revisa cada pareja de strikes adyacentes: si YES(strike bajo)
// + NO(strike alto) cuesta menos que el margen, ambas piernas juntas pagan
// 100 al resolverse y el gap es ganancia teórica.
func (s *Arbitrage) rangePairs(markets []domain.Market) []domain.Recommendation {
	sorted := sortByStrike(markets)

	var recs []domain.Recommendation
	for i := 0; i < len(sorted)-1; i++ {
		lower, higher := sorted[i], sorted[i+1]
		yesLow := lower.YesAsk
		noHigh := higher.NoAsk
		if yesLow <= 0 || noHigh <= 0 || yesLow+noHigh >= s.margin {
			continue
		}

		profit := 100 - (yesLow + noHigh)
		confidence := domain.ConfidenceMedium
		if profit > arbHighProfitCents {
			confidence = domain.ConfidenceHigh
		}
		rationale := fmt.Sprintf(
			"Arbitrage opportunity: Buy YES at %d¢ and NO at %d¢ for a theoretical profit of %.1f¢ per contract pair.",
			yesLow, noHigh, float64(profit))

		recs = append(recs,
			domain.Recommendation{
				MarketID:    lower.ID,
				MarketTitle: lower.Title,
				Action:      domain.ActionYes,
				Contracts:   1,
				Probability: float64(yesLow),
				Cost:        round2(float64(yesLow) / 100.0),
				TargetExit:  float64(yesLow + 5),
				StopLoss:    float64(yesLow - 5),
				Confidence:  confidence,
				Rationale:   rationale,
				Strategy:    domain.StrategyArbitrage,
			},
			domain.Recommendation{
				MarketID:    higher.ID,
				MarketTitle: higher.Title,
				Action:      domain.ActionNo,
				Contracts:   1,
				Probability: float64(100 - noHigh),
				Cost:        round2(float64(noHigh) / 100.0),
				TargetExit:  float64(noHigh - 5),
				StopLoss:    float64(noHigh + 5),
				Confidence:  confidence,
				Rationale:   rationale,
				Strategy:    domain.StrategyArbitrage,
			},
		)
	}
	return recs
}

// indexPairs busca violaciones de monotonía: el strike menor debe tener
// YES mayor o igual. Un gap de más de 5 centavos al revés es mispricing
// relativo: se compra el strike barato y se vende el caro.
func (s *Arbitrage) indexPairs(markets []domain.Market) []domain.Recommendation {
	sorted := sortByStrike(markets)

	var recs []domain.Recommendation
	for i := 0; i < len(sorted)-1; i++ {
		lower, higher := sorted[i], sorted[i+1]
		yesLow := lower.YesAsk
		yesHigh := higher.YesAsk
		if yesLow <= 0 || yesHigh <= 0 || yesLow >= yesHigh-5 {
			continue
		}

		recs = append(recs,
			domain.Recommendation{
				MarketID:    lower.ID,
				MarketTitle: lower.Title,
				Action:      domain.ActionYes,
				Contracts:   1,
				Probability: float64(yesLow),
				Cost:        round2(float64(yesLow) / 100.0),
				TargetExit:  float64(yesLow + 10),
				StopLoss:    float64(yesLow - 5),
				Confidence:  domain.ConfidenceMedium,
				Rationale: fmt.Sprintf(
					"Relative value opportunity: YES price of %d¢ is significantly lower than the YES price of %d¢ for a higher strike.",
					yesLow, yesHigh),
				Strategy: domain.StrategyArbitrage,
			},
			domain.Recommendation{
				MarketID:    higher.ID,
				MarketTitle: higher.Title,
				Action:      domain.ActionNo,
				Contracts:   1,
				Probability: float64(100 - yesHigh),
				Cost:        round2(float64(100-yesHigh) / 100.0),
				TargetExit:  float64(yesHigh - 10),
				StopLoss:    float64(yesHigh + 5),
				Confidence:  domain.ConfidenceMedium,
				Rationale: fmt.Sprintf(
					"Relative value opportunity: YES price of %d¢ is significantly higher than the YES price of %d¢ for a lower strike.",
					yesHigh, yesLow),
				Strategy: domain.StrategyArbitrage,
			},
		)
	}
	return recs
}

func sortByStrike(markets []domain.Market) []domain.Market {
	sorted := make([]domain.Market, len(markets))
	copy(sorted, markets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return domain.StrikePrice(sorted[i].ID) < domain.StrikePrice(sorted[j].ID)
	})
	return sorted
}
