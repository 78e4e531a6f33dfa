package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/domain"
)

func rec(marketID string, conf domain.Confidence, cost float64) domain.Recommendation {
	return domain.Recommendation{
		MarketID:   marketID,
		Action:     domain.ActionYes,
		Confidence: conf,
		Cost:       cost,
	}
}

func TestHybridSplit(t *testing.T) {
	mom, rev := HybridSplit(5, domain.RiskLow)
	assert.Equal(t, 2, mom) // 40% de 5
	assert.Equal(t, 3, rev)

	mom, rev = HybridSplit(5, domain.RiskHigh)
	assert.Equal(t, 3, mom) // 70% de 5
	assert.Equal(t, 2, rev)

	mom, rev = HybridSplit(4, domain.RiskMedium)
	assert.Equal(t, 2, mom)
	assert.Equal(t, 2, rev)
}

func TestHybridSplit_MomentumFloor(t *testing.T) {
	mom, rev := HybridSplit(1, domain.RiskLow)
	assert.Equal(t, 1, mom, "momentum nunca baja de 1")
	assert.Equal(t, 0, rev)
}

func TestFilterByRisk(t *testing.T) {
	recs := []domain.Recommendation{
		rec("a", domain.ConfidenceHigh, 1),
		rec("b", domain.ConfidenceMedium, 1),
		rec("c", domain.ConfidenceLow, 1),
	}

	low := FilterByRisk(recs, domain.RiskLow)
	require.Len(t, low, 1)
	assert.Equal(t, "a", low[0].MarketID)

	medium := FilterByRisk(recs, domain.RiskMedium)
	assert.Len(t, medium, 2)

	high := FilterByRisk(recs, domain.RiskHigh)
	assert.Len(t, high, 3)
}

func TestBlend_FirstOccurrenceWins(t *testing.T) {
	lists := [][]domain.Recommendation{
		{rec("a", domain.ConfidenceMedium, 1.0)},
		{rec("a", domain.ConfidenceHigh, 2.0), rec("b", domain.ConfidenceMedium, 1.0)},
	}

	got := Blend(lists, 5, domain.RiskHigh)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MarketID)
	assert.Equal(t, domain.ConfidenceMedium, got[0].Confidence,
		"la primera aparición gana aunque la duplicada tenga más confianza")
	assert.Equal(t, "b", got[1].MarketID)
}

func TestBlend_Invariants(t *testing.T) {
	lists := [][]domain.Recommendation{
		{
			rec("a", domain.ConfidenceHigh, 1.0),
			rec("b", domain.ConfidenceLow, 1.0),
			rec("c", domain.ConfidenceMedium, 1.0),
		},
		{
			rec("a", domain.ConfidenceMedium, 2.0),
			rec("d", domain.ConfidenceHigh, 1.0),
			rec("e", domain.ConfidenceMedium, 1.0),
			rec("f", domain.ConfidenceHigh, 1.0),
		},
	}

	for _, risk := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh} {
		got := Blend(lists, 3, risk)
		assert.LessOrEqual(t, len(got), 3)

		seen := make(map[string]bool)
		for _, r := range got {
			assert.False(t, seen[r.MarketID], "market repetido: %s", r.MarketID)
			seen[r.MarketID] = true
			assert.True(t, risk.Admits(r.Confidence))
		}
	}
}

func TestBlend_LowRiskOnlyHigh(t *testing.T) {
	lists := [][]domain.Recommendation{{
		rec("a", domain.ConfidenceHigh, 1.0),
		rec("b", domain.ConfidenceMedium, 1.0),
		rec("c", domain.ConfidenceLow, 1.0),
	}}

	got := Blend(lists, 5, domain.RiskLow)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ConfidenceHigh, got[0].Confidence)
}

func TestBlend_TruncatesAtMax(t *testing.T) {
	// Más candidatos que huecos: el dedup llena max con las primeras
	// apariciones en orden de generación y el resto queda fuera.
	lists := [][]domain.Recommendation{
		{rec("a", domain.ConfidenceMedium, 1.0)},
		{
			rec("a", domain.ConfidenceMedium, 1.0), // duplicado, descartado
			rec("b", domain.ConfidenceLow, 9.0),
			rec("c", domain.ConfidenceHigh, 1.0),
			rec("d", domain.ConfidenceLow, 2.0),
		},
	}

	got := Blend(lists, 3, domain.RiskHigh)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].MarketID)
	assert.Equal(t, "b", got[1].MarketID)
	assert.Equal(t, "c", got[2].MarketID)
}

func TestBlend_PreservesGenerationOrder(t *testing.T) {
	lists := [][]domain.Recommendation{{
		rec("a", domain.ConfidenceLow, 1.0),
		rec("b", domain.ConfidenceLow, 5.0),
		rec("c", domain.ConfidenceHigh, 1.0),
	}}

	got := Blend(lists, 3, domain.RiskHigh)
	require.Len(t, got, 3)
	// Con hueco para todos, el orden de generación se preserva.
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].MarketID, got[1].MarketID, got[2].MarketID})
}

func TestBlend_ZeroMax(t *testing.T) {
	lists := [][]domain.Recommendation{{rec("a", domain.ConfidenceHigh, 1.0)}}
	assert.Empty(t, Blend(lists, 0, domain.RiskHigh))
}

func TestSortByConfidence_CostTieBreak(t *testing.T) {
	recs := []domain.Recommendation{
		rec("cheap", domain.ConfidenceMedium, 0.5),
		rec("pricey", domain.ConfidenceMedium, 3.0),
		rec("top", domain.ConfidenceHigh, 0.1),
	}

	SortByConfidence(recs)
	assert.Equal(t, "top", recs[0].MarketID)
	assert.Equal(t, "pricey", recs[1].MarketID, "a igual confianza gana el coste mayor")
	assert.Equal(t, "cheap", recs[2].MarketID)
}
