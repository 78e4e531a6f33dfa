package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/domain"
)

func testPhrases() *Phrases { return NewPhrases(1) }

func makeMarket(id string, yesAsk int, volume int64) domain.Market {
	return domain.Market{
		ID:        id,
		Ticker:    id,
		Title:     "Test market " + id,
		YesBid:    yesAsk - 2,
		YesAsk:    yesAsk,
		NoBid:     100 - yesAsk,
		NoAsk:     100 - yesAsk + 2,
		Volume24h: volume,
		Series:    domain.SeriesOf(id),
	}
}

func TestMomentum_BullishHighConfidence(t *testing.T) {
	s := NewMomentum(testPhrases())
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 90, 1000)},
		Max:     5,
		Risk:    domain.RiskHigh,
	}

	recs := s.Analyze(in)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, domain.ActionYes, rec.Action)
	assert.Equal(t, domain.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, 5, rec.Contracts)
	assert.Equal(t, 90.0, rec.Probability)
	assert.Equal(t, 4.5, rec.Cost) // 5 contratos × 90¢
	assert.Equal(t, 99.0, rec.TargetExit, "90+15 acotado a 99")
	assert.Equal(t, 80.0, rec.StopLoss)
	assert.NotEmpty(t, rec.Rationale)
}

func TestMomentum_BearishSide(t *testing.T) {
	s := NewMomentum(testPhrases())
	in := Input{
		Markets: []domain.Market{makeMarket("KXETH-25APR0212-B1920", 25, 1000)},
		Max:     5,
		Risk:    domain.RiskLow,
	}

	recs := s.Analyze(in)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, domain.ActionNo, rec.Action)
	assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, 1, rec.Contracts)
	assert.Equal(t, 75.0, rec.Probability)
	assert.Equal(t, 10.0, rec.TargetExit) // 25-15
	assert.Equal(t, 35.0, rec.StopLoss)   // 25+10
}

func TestMomentum_DeadZoneSkipped(t *testing.T) {
	s := NewMomentum(testPhrases())
	in := Input{
		Markets: []domain.Market{
			makeMarket("KXETH-25APR0212-B1920", 50, 1000),
			makeMarket("KXETH-25APR0212-B1940", 65, 900), // justo en el umbral, no lo pasa
			makeMarket("KXETH-25APR0212-B1960", 35, 800),
		},
		Max:  5,
		Risk: domain.RiskMedium,
	}

	assert.Empty(t, s.Analyze(in))
}

func TestMomentum_RanksByVolume(t *testing.T) {
	s := NewMomentum(testPhrases())
	in := Input{
		Markets: []domain.Market{
			makeMarket("low-vol", 70, 100),
			makeMarket("high-vol", 70, 10_000),
		},
		Max:  1,
		Risk: domain.RiskMedium,
	}

	recs := s.Analyze(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "high-vol", recs[0].MarketID)
}

func TestMomentum_RespectsMax(t *testing.T) {
	s := NewMomentum(testPhrases())
	var markets []domain.Market
	for i := 0; i < 10; i++ {
		markets = append(markets, makeMarket(string(rune('a'+i)), 75, int64(1000-i)))
	}

	recs := s.Analyze(Input{Markets: markets, Max: 3, Risk: domain.RiskMedium})
	assert.Len(t, recs, 3)
}

func TestMomentum_EmptyInput(t *testing.T) {
	s := NewMomentum(testPhrases())
	assert.Empty(t, s.Analyze(Input{Max: 5, Risk: domain.RiskMedium}))
}
