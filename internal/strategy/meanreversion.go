package strategy

import (
	"sort"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Umbrales de mean-reversion: solo precios extremos (>0.80 / <0.20) son
// candidatos a revertir. La confianza nunca pasa de Medium: apostar contra
// el extremo es inherentemente menos fiable que seguir el trend.
const (
	reversionHigh        = 80
	reversionLow         = 20
	reversionExtremeHigh = 90
	reversionExtremeLow  = 10

	reversionTargetOffset = 20
	reversionStopOffset   = 5
)

// reversionContracts es la tabla de sizing por nivel de riesgo.
var reversionContracts = map[domain.RiskLevel]int{
	domain.RiskLow:    1,
	domain.RiskMedium: 2,
	domain.RiskHigh:   4,
}

// MeanReversion apuesta contra precios extremos esperando que vuelvan
// hacia 50. Target más ancho y stop más ceñido que momentum: la tesis
// es una corrección grande o nada.
type MeanReversion struct {
	phrases *Phrases
}

// NewMeanReversion crea el scorer de mean-reversion.
func NewMeanReversion(phrases *Phrases) *MeanReversion {
	return &MeanReversion{phrases: phrases}
}

func (s *MeanReversion) Name() domain.Strategy { return domain.StrategyMeanReversion }

// Analyze rankea por distancia a 50 descendente (el más extremo primero)
// y emite hasta in.Max candidatos contra el extremo.
func (s *MeanReversion) Analyze(in Input) []domain.Recommendation {
	if len(in.Markets) == 0 {
		return nil
	}

	sorted := make([]domain.Market, len(in.Markets))
	copy(sorted, in.Markets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return absInt(sorted[i].YesAsk-50) > absInt(sorted[j].YesAsk-50)
	})

	contracts := reversionContracts[in.Risk]
	if contracts == 0 {
		contracts = reversionContracts[domain.RiskMedium]
	}

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
		case yes > reversionHigh:
			// Precio alto: esperamos que baje, compramos NO.
			action = domain.ActionNo
			probability = float64(100 - yes)
			confidence = domain.ConfidenceLow
			if yes > reversionExtremeHigh {
				confidence = domain.ConfidenceMedium
			}
			cost = float64(contracts) * float64(100-yes) / 100.0
			target = clampCents(yes - reversionTargetOffset)
			stop = clampCents(yes + reversionStopOffset)
		case yes < reversionLow:
			// Precio bajo: esperamos que suba, compramos YES.
			action = domain.ActionYes
			probability = float64(yes)
			confidence = domain.ConfidenceLow
			if yes < reversionExtremeLow {
				confidence = domain.ConfidenceMedium
			}
			cost = float64(contracts) * float64(yes) / 100.0
			target = clampCents(yes + reversionTargetOffset)
			stop = clampCents(yes - reversionStopOffset)
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
			Rationale:   s.phrases.reversionRationale(m, action, confidence),
			Strategy:    domain.StrategyMeanReversion,
		})
		if len(recs) >= in.Max {
			break
		}
	}
	return recs
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
