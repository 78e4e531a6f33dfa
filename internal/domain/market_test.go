package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeriesOf_LongVariantWins(t *testing.T) {
	// KXETHD contiene KXETH como substring: debe matchear la variante larga.
	assert.Equal(t, SeriesETHPrice, SeriesOf("KXETHD-25APR0212-T1800"))
	assert.Equal(t, SeriesETHRange, SeriesOf("KXETH-25APR0212-B1920"))
	assert.Equal(t, SeriesBTCPrice, SeriesOf("KXBTCD-25APR0212-T85000"))
	assert.Equal(t, SeriesBTCRange, SeriesOf("KXBTC-25APR0212-B84500"))
}

func TestSeriesOf_Unknown(t *testing.T) {
	assert.Equal(t, Series(""), SeriesOf("KXWEATHER-25APR02-T50"))
	assert.False(t, IsTargetMarket("KXWEATHER-25APR02-T50"))
}

func TestStrikePrice(t *testing.T) {
	assert.Equal(t, 19529.99, StrikePrice("KXNASDAQ100U-25APR02H1200-T19529.99"))
	assert.Equal(t, 1920.0, StrikePrice("KXETH-25APR0212-B1920"))
	assert.Equal(t, 0.0, StrikePrice("KXETH-25APR0212"))      // sin segmento de strike
	assert.Equal(t, 0.0, StrikePrice("KXETH-25APR0212-1920")) // sin prefijo T/B
}

func TestIsCurrentHourly_IndexSeries(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 30, 0, 0, time.UTC)

	assert.True(t, IsCurrentHourly("KXNASDAQ100U-25APR02H1200", now))
	assert.True(t, IsCurrentHourly("KXNASDAQ100U-25APR02H1300", now), "la hora siguiente también cuenta")
	assert.False(t, IsCurrentHourly("KXNASDAQ100U-25APR02H1400", now))
	assert.False(t, IsCurrentHourly("KXNASDAQ100U-25APR03H1200", now), "fecha equivocada")
}

func TestIsCurrentHourly_CryptoSeries(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 30, 0, 0, time.UTC)

	assert.True(t, IsCurrentHourly("KXETH-25APR0212", now))
	assert.True(t, IsCurrentHourly("KXETHD-25APR0213", now))
	assert.False(t, IsCurrentHourly("KXETH-25APR0215", now))
}

func TestIsCurrentHourly_WrapsMidnight(t *testing.T) {
	now := time.Date(2025, 4, 2, 23, 10, 0, 0, time.UTC)
	// La "hora siguiente" a las 23 es la 00; el evento de medianoche sigue
	// llevando la fecha del día actual en el ticker.
	assert.True(t, IsCurrentHourly("KXETH-25APR0200", now))
}

func TestFilterHourly(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	markets := []Market{
		{ID: "a", Ticker: "KXETH-25APR0212-B1920", EventTicker: "KXETH-25APR0212"},
		{ID: "b", Ticker: "KXETH-25APR0218-B1920", EventTicker: "KXETH-25APR0218"},
		{ID: "c", Ticker: "KXNASDAQ100U-25APR02H1200-T19500", EventTicker: "KXNASDAQ100U-25APR02H1200"},
		{ID: "d", Ticker: "KXWEATHER-25APR0212"},
	}

	got := FilterHourly(markets, now)
	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestFilterHourly_FallsBackToTicker(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	markets := []Market{{ID: "a", Ticker: "KXNASDAQ100U-25APR02H1200-T19500"}}
	assert.Len(t, FilterHourly(markets, now), 1)
}
