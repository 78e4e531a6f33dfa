package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/domain"
)

func TestFeed_CoversTargetSeries(t *testing.T) {
	feed := NewFeed(time.Minute, 42, nil)

	senti, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)
	require.Len(t, senti, len(domain.TargetSeries))

	for series, s := range senti {
		assert.NotEmpty(t, s.Sentiment, "serie %s", series)
		assert.Contains(t, []string{"low", "medium", "high"}, s.ActivityLevel)
		assert.Contains(t, []string{"low", "medium", "high"}, s.Confidence)
		if s.TotalTrades > 0 {
			assert.InDelta(t, 100.0, s.BuyPercentage+s.SellPercentage, 0.001)
		}
	}
}

func TestFeed_ThresholdsConsistent(t *testing.T) {
	feed := NewFeed(time.Minute, 7, nil)

	senti, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)

	for series, s := range senti {
		switch s.Sentiment {
		case "bullish":
			assert.GreaterOrEqual(t, s.BuyPercentage, 70.0, "serie %s", series)
		case "slightly_bullish":
			assert.GreaterOrEqual(t, s.BuyPercentage, 55.0, "serie %s", series)
			assert.Less(t, s.BuyPercentage, 70.0, "serie %s", series)
		case "bearish":
			assert.GreaterOrEqual(t, s.SellPercentage, 70.0, "serie %s", series)
		}

		if s.Confidence == "high" {
			assert.GreaterOrEqual(t, s.TotalTrades, 10, "serie %s", series)
		}
		if s.ActivityLevel == "high" {
			assert.GreaterOrEqual(t, s.TotalActivities, 10, "serie %s", series)
		}
	}
}

func TestFeed_CachesWithinTTL(t *testing.T) {
	feed := NewFeed(time.Hour, 42, nil)

	first, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)
	second, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second, "dentro del TTL el agregado no cambia")
}

func TestFeed_RegeneratesAfterTTL(t *testing.T) {
	feed := NewFeed(time.Minute, 42, nil)

	clock := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return clock }

	first, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	second, err := feed.SeriesSentiment(context.Background())
	require.NoError(t, err)

	// El feed avanza: con otra tanda los totales casi seguro cambian en
	// alguna serie. Comparamos mapas como un todo.
	assert.NotEqual(t, first, second)
}
