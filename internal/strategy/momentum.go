package strategy

import (
	"sort"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Umbrales de momentum: fuera de la zona muerta [0.35, 0.65] hay trend;
// más allá de 0.80 / 0.20 la confianza escala a High.
const (
	momentumBullish     = 65
	momentumBearish     = 35
	momentumHighBullish = 80
	momentumHighBearish = 20

	momentumTargetOffset = 15
	momentumStopOffset   = 10
)

// momentumContracts es la tabla de sizing por nivel de riesgo.
var momentumContracts = map[domain.RiskLevel]int{
	domain.RiskLow:    1,
	domain.RiskMedium: 3,
	domain.RiskHigh:   5,
}

// Momentum recomienda continuar el trend en mercados con precio decidido.
// Rankea por volumen descendente: volumen alto confirma el movimiento.
type Momentum struct {
	phrases *Phrases
}

// NewMomentum crea el scorer de momentum con el selector de frases dado.
func NewMomentum(phrases *Phrases) *Momentum {
	return &Momentum{phrases: phrases}
}

func (s *Momentum) Name() domain.Strategy { return domain.StrategyMomentum }

// Analyze selecciona los mercados con trend claro y emite hasta in.Max
// candidatos. Los mercados en la zona muerta se saltan.
func (s *Momentum) Analyze(in Input) []domain.Recommendation {
	if len(in.Markets) == 0 {
		return nil
	}

	sorted := make([]domain.Market, len(in.Markets))
	copy(sorted, in.Markets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume24h > sorted[j].Volume24h
	})

	contracts := momentumContracts[in.Risk]
	if contracts == 0 {
		contracts = momentumContracts[domain.RiskMedium]
	}

	// Se escanea el doble de lo pedido: parte cae en la zona muerta.
	limit := in.Max * 2
	if limit > len(sorted) {
		limit = len(sorted)
	}

	var recs []domain.Recommendation
	for _, m := range sorted[:limit] {
		yes := m.YesAsk

		var (
			action      domain.Action
			probability float64
			confidence  domain.Confidence
			cost        float64
			target      int
			stop        int
		)
		switch {
		case yes > momentumBullish:
			action = domain.ActionYes
			probability = float64(yes)
			confidence = domain.ConfidenceMedium
			if yes > momentumHighBullish {
				confidence = domain.ConfidenceHigh
			}
			cost = float64(contracts) * float64(yes) / 100.0
			target = clampCents(yes + momentumTargetOffset)
			stop = clampCents(yes - momentumStopOffset)
		case yes < momentumBearish:
			action = domain.ActionNo
			probability = float64(100 - yes)
			confidence = domain.ConfidenceMedium
			if yes < momentumHighBearish {
				confidence = domain.ConfidenceHigh
			}
			cost = float64(contracts) * float64(100-yes) / 100.0
			target = clampCents(yes - momentumTargetOffset)
			stop = clampCents(yes + momentumStopOffset)
		default:
			continue
		}

		recs = append(recs, domain.Recommendation{
			MarketID:    m.ID,
			MarketTitle: m.Title,
			Action:      action,
			Contracts:   contracts,
			Probability: round1(probability),
			Cost:        round2(cost),
			TargetExit:  float64(target),
			StopLoss:    float64(stop),
			Confidence:  confidence,
			Rationale:   s.phrases.momentumRationale(m, action, confidence),
			Strategy:    domain.StrategyMomentum,
		})
		if len(recs) >= in.Max {
			break
		}
	}
	return recs
}
