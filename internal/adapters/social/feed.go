// Package social simula un feed de actividad de traders y lo agrega en
// sentiment por serie. El agregado se cachea en memoria con su propio TTL,
// independiente de la caché de recomendaciones.
package social

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

// DefaultTTL es la frescura del agregado de sentiment.
const DefaultTTL = 5 * time.Minute

// Umbrales del análisis de actividad.
const (
	bullishPct         = 70.0
	slightlyBullishPct = 55.0

	highActivityCount   = 10
	mediumActivityCount = 5

	highConfidenceTrades   = 10
	mediumConfidenceTrades = 5
)

// activity es un evento individual del feed: un trade o una interacción.
type activity struct {
	Series  domain.Series
	Kind    string // trade | comment | reaction
	Side    domain.Action
	Traded  bool
	Instant time.Time
}

// Feed genera actividad sintética y la agrega en SeriesSentiment.
// Implementa ports.SentimentProvider.
type Feed struct {
	mu      sync.Mutex
	cached  map[domain.Series]domain.SeriesSentiment
	fetched time.Time

	ttl time.Duration
	rnd *rand.Rand
	log *slog.Logger
	now func() time.Time
}

var _ ports.SentimentProvider = (*Feed)(nil)

func NewFeed(ttl time.Duration, seed int64, log *slog.Logger) *Feed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		ttl: ttl,
		rnd: rand.New(rand.NewSource(seed)),
		log: log,
		now: time.Now,
	}
}

// SeriesSentiment devuelve el agregado por serie, regenerando el feed
// solo cuando el agregado cacheado expira.
func (f *Feed) SeriesSentiment(_ context.Context) (map[domain.Series]domain.SeriesSentiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil && f.now().Sub(f.fetched) <= f.ttl {
		return f.cached, nil
	}

	activities := f.generate()
	f.cached = analyze(activities)
	f.fetched = f.now()
	f.log.Debug("social feed regenerated",
		"activities", len(activities), "series", len(f.cached))
	return f.cached, nil
}

// generate produce una tanda de actividad sintética por serie: entre 3 y
// 17 eventos, mayoría trades, con un sesgo buy/sell propio de cada tanda.
func (f *Feed) generate() []activity {
	now := f.now()
	var out []activity
	for _, series := range domain.TargetSeries {
		n := 3 + f.rnd.Intn(15)
		buyBias := 0.3 + f.rnd.Float64()*0.4 // 30%-70% de trades buy-YES
		for i := 0; i < n; i++ {
			a := activity{
				Series:  series,
				Kind:    "trade",
				Traded:  true,
				Side:    domain.ActionYes,
				Instant: now.Add(-time.Duration(f.rnd.Intn(3600)) * time.Second),
			}
			if f.rnd.Float64() > buyBias {
				a.Side = domain.ActionNo
			}
			// Una parte del feed son comentarios y reacciones sin trade.
			if f.rnd.Intn(4) == 0 {
				a.Kind = "comment"
				a.Traded = false
			}
			out = append(out, a)
		}
	}
	return out
}

// analyze agrega la actividad en sentiment por serie aplicando los
// umbrales de porcentaje buy, volumen de actividad y número de trades.
func analyze(activities []activity) map[domain.Series]domain.SeriesSentiment {
	type tally struct {
		total, trades, buys, sells int
	}
	tallies := make(map[domain.Series]*tally)
	for _, a := range activities {
		t := tallies[a.Series]
		if t == nil {
			t = &tally{}
			tallies[a.Series] = t
		}
		t.total++
		if !a.Traded {
			continue
		}
		t.trades++
		if a.Side == domain.ActionYes {
			t.buys++
		} else {
			t.sells++
		}
	}

	out := make(map[domain.Series]domain.SeriesSentiment, len(tallies))
	for series, t := range tallies {
		s := domain.SeriesSentiment{
			Sentiment:       "neutral",
			ActivityLevel:   "low",
			Confidence:      "low",
			TotalTrades:     t.trades,
			TotalActivities: t.total,
		}
		if t.trades > 0 {
			s.BuyPercentage = float64(t.buys) / float64(t.trades) * 100
			s.SellPercentage = float64(t.sells) / float64(t.trades) * 100
		}

		switch {
		case s.BuyPercentage >= bullishPct:
			s.Sentiment = "bullish"
		case s.BuyPercentage >= slightlyBullishPct:
			s.Sentiment = "slightly_bullish"
		case s.SellPercentage >= bullishPct:
			s.Sentiment = "bearish"
		case s.SellPercentage >= slightlyBullishPct:
			s.Sentiment = "slightly_bearish"
		}

		switch {
		case t.total >= highActivityCount:
			s.ActivityLevel = "high"
		case t.total >= mediumActivityCount:
			s.ActivityLevel = "medium"
		}

		switch {
		case t.trades >= highConfidenceTrades:
			s.Confidence = "high"
		case t.trades >= mediumConfidenceTrades:
			s.Confidence = "medium"
		}

		out[series] = s
	}
	return out
}
