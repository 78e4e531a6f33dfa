package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/domain"
)

func TestSentiment_BullishFeedBuysYes(t *testing.T) {
	s := NewSentiment()
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 40, 1000)},
		Sentiment: map[domain.Series]domain.SeriesSentiment{
			domain.SeriesETHRange: {
				Sentiment:     "bullish",
				Confidence:    "high",
				BuyPercentage: 75,
				ActivityLevel: "high",
			},
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	recs := s.Analyze(in)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, domain.ActionYes, rec.Action)
	assert.Equal(t, domain.ConfidenceHigh, rec.Confidence, "confianza high del feed escala el tier")
	assert.Equal(t, 40.0, rec.Probability)
	assert.Equal(t, 50.0, rec.TargetExit) // 40+10
	assert.Equal(t, 35.0, rec.StopLoss)   // 40-5
}

func TestSentiment_BearishFeedBuysNo(t *testing.T) {
	s := NewSentiment()
	m := makeMarket("KXBTC-25APR0212-B84000", 60, 1000) // YesBid 58, NoAsk 42
	in := Input{
		Markets: []domain.Market{m},
		Sentiment: map[domain.Series]domain.SeriesSentiment{
			domain.SeriesBTCRange: {
				Sentiment:      "slightly_bearish",
				Confidence:     "medium",
				SellPercentage: 65,
				ActivityLevel:  "medium",
			},
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	recs := s.Analyze(in)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, domain.ActionNo, rec.Action)
	assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, 42.0, rec.Probability) // 100 - YesBid
	assert.Equal(t, 52.0, rec.TargetExit)  // NoAsk+10
}

func TestSentiment_LowFeedConfidenceSkipped(t *testing.T) {
	s := NewSentiment()
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 40, 1000)},
		Sentiment: map[domain.Series]domain.SeriesSentiment{
			domain.SeriesETHRange: {
				Sentiment:     "bullish",
				Confidence:    "low",
				BuyPercentage: 90,
			},
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	assert.Empty(t, s.Analyze(in))
}

func TestSentiment_MissingSeriesSkipped(t *testing.T) {
	s := NewSentiment()
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 40, 1000)},
		Sentiment: map[domain.Series]domain.SeriesSentiment{
			domain.SeriesBTCRange: {Sentiment: "bullish", Confidence: "high", BuyPercentage: 80},
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	assert.Empty(t, s.Analyze(in), "series sin datos se saltan, nunca se asume neutral")
}

func TestSentiment_WeakActivitySkipped(t *testing.T) {
	s := NewSentiment()
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 40, 1000)},
		Sentiment: map[domain.Series]domain.SeriesSentiment{
			domain.SeriesETHRange: {
				Sentiment:     "slightly_bullish",
				Confidence:    "medium",
				BuyPercentage: 56, // alcista pero por debajo del 60% requerido
			},
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	assert.Empty(t, s.Analyze(in))
}
