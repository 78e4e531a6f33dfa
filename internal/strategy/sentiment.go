package strategy

import (
	"fmt"

	"github.com/dmorell/kalshibot/internal/domain"
)

// sentimentActivityFloor: porcentaje mínimo de actividad buy (o sell) para
// que el señal de sentiment sea accionable.
const sentimentActivityFloor = 60.0

// Sentiment convierte los agregados del feed social en candidatos.
// Los mercados cuya serie no tiene datos de sentiment se saltan, nunca
// se rellenan con un neutral por defecto.
type Sentiment struct{}

// NewSentiment crea el scorer de sentiment.
func NewSentiment() *Sentiment { return &Sentiment{} }

func (s *Sentiment) Name() domain.Strategy { return domain.StrategySentiment }

// Analyze emite YES con sentiment alcista y >=60% de compras, NO bajo la
// condición simétrica. Confianza "low" del feed descarta el señal.
func (s *Sentiment) Analyze(in Input) []domain.Recommendation {
	if len(in.Markets) == 0 || len(in.Sentiment) == 0 {
		return nil
	}

	var recs []domain.Recommendation
	for _, m := range in.Markets {
		series := domain.SeriesOf(m.ID)
		if series == "" {
			continue
		}
		data, ok := in.Sentiment[series]
		if !ok {
			continue
		}
		if data.Confidence == "low" {
			continue
		}

		confidence := domain.ConfidenceMedium
		if data.Confidence == "high" {
			confidence = domain.ConfidenceHigh
		}

		switch {
		case data.Bullish() && data.BuyPercentage >= sentimentActivityFloor:
			recs = append(recs, domain.Recommendation{
				MarketID:    m.ID,
				MarketTitle: m.Title,
				Action:      domain.ActionYes,
				Contracts:   1,
				Probability: float64(m.YesAsk),
				Cost:        round2(float64(m.YesAsk) / 100.0),
				TargetExit:  float64(m.YesAsk + 10),
				StopLoss:    float64(m.YesAsk - 5),
				Confidence:  confidence,
				Rationale: fmt.Sprintf(
					"Strong bullish sentiment (%.1f%% buy) with %s activity level.",
					data.BuyPercentage, data.ActivityLevel),
				Strategy: domain.StrategySentiment,
			})
		case data.Bearish() && data.SellPercentage >= sentimentActivityFloor:
			recs = append(recs, domain.Recommendation{
				MarketID:    m.ID,
				MarketTitle: m.Title,
				Action:      domain.ActionNo,
				Contracts:   1,
				Probability: float64(100 - m.YesBid),
				Cost:        round2(float64(m.NoAsk) / 100.0),
				TargetExit:  float64(m.NoAsk + 10),
				StopLoss:    float64(m.NoAsk - 5),
				Confidence:  confidence,
				Rationale: fmt.Sprintf(
					"Strong bearish sentiment (%.1f%% sell) with %s activity level.",
					data.SellPercentage, data.ActivityLevel),
				Strategy: domain.StrategySentiment,
			})
		}
	}
	return recs
}
