package yolo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

type stubRecommender struct {
	set domain.ResultSet
}

func (s *stubRecommender) GetRecommendations(context.Context, string, int, string, bool) (domain.ResultSet, error) {
	return s.set, nil
}

type recordingExecutor struct {
	mu     sync.Mutex
	orders []ports.OrderRequest
	signal chan struct{}
}

func newRecordingExecutor(capacity int) *recordingExecutor {
	return &recordingExecutor{signal: make(chan struct{}, capacity)}
}

func (e *recordingExecutor) CreateOrder(_ context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	e.mu.Lock()
	e.orders = append(e.orders, req)
	e.mu.Unlock()
	e.signal <- struct{}{}
	return ports.PlacedOrder{OrderID: "order-1", MarketID: req.MarketID}, nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orders)
}

func yoloRec(marketID string, conf domain.Confidence, cost float64) domain.Recommendation {
	return domain.Recommendation{
		MarketID:    marketID,
		MarketTitle: "Market " + marketID,
		Action:      domain.ActionYes,
		Contracts:   1,
		Probability: 70,
		Cost:        cost,
		Confidence:  conf,
		Strategy:    domain.StrategyHybrid,
	}
}

func waitForOrders(t *testing.T, e *recordingExecutor, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-e.signal:
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout esperando la orden %d", i+1)
		}
	}
}

func testConfig() Config {
	return Config{
		Strategy:  domain.StrategyHybrid,
		Risk:      domain.RiskMedium,
		CycleWait: time.Hour, // un solo ciclo por test
		TradeWait: time.Millisecond,
	}
}

func TestEngine_ExecutesRecommendedTrades(t *testing.T) {
	recommender := &stubRecommender{set: domain.ResultSet{Recommendations: []domain.Recommendation{
		yoloRec("KXETH-25APR0212-B1920", domain.ConfidenceHigh, 1.0),
		yoloRec("KXETH-25APR0212-B1940", domain.ConfidenceMedium, 1.5),
	}}}
	executor := newRecordingExecutor(4)
	engine := NewEngine(recommender, executor, nil, nil)

	require.NoError(t, engine.Start(testConfig()))
	waitForOrders(t, executor, 2)
	engine.Stop(context.Background())

	status := engine.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.TotalTrades)
	assert.Equal(t, 2.5, status.TotalSpent)
	assert.Equal(t, 2, status.TradedMarkets)
}

func TestEngine_SkipsOverCapCost(t *testing.T) {
	recommender := &stubRecommender{set: domain.ResultSet{Recommendations: []domain.Recommendation{
		yoloRec("KXETH-25APR0212-B1920", domain.ConfidenceHigh, 50.0), // por encima del cap por trade
		yoloRec("KXETH-25APR0212-B1940", domain.ConfidenceHigh, 1.0),
	}}}
	executor := newRecordingExecutor(4)
	engine := NewEngine(recommender, executor, nil, nil)

	cfg := testConfig()
	cfg.MaxSpendPerTrade = 5.0
	require.NoError(t, engine.Start(cfg))
	waitForOrders(t, executor, 1)
	engine.Stop(context.Background())

	assert.Equal(t, 1, executor.count())
	assert.Equal(t, "KXETH-25APR0212-B1940", executor.orders[0].MarketID)
}

func TestEngine_SkipsLowConfidenceUnlessHighRisk(t *testing.T) {
	set := domain.ResultSet{Recommendations: []domain.Recommendation{
		yoloRec("KXETH-25APR0212-B1920", domain.ConfidenceLow, 1.0),
	}}

	executor := newRecordingExecutor(4)
	engine := NewEngine(&stubRecommender{set: set}, executor, nil, nil)
	require.NoError(t, engine.Start(testConfig()))
	time.Sleep(50 * time.Millisecond)
	engine.Stop(context.Background())
	assert.Equal(t, 0, executor.count(), "confianza Low se salta con riesgo medium")

	executor2 := newRecordingExecutor(4)
	engine2 := NewEngine(&stubRecommender{set: set}, executor2, nil, nil)
	cfg := testConfig()
	cfg.Risk = domain.RiskHigh
	require.NoError(t, engine2.Start(cfg))
	waitForOrders(t, executor2, 1)
	engine2.Stop(context.Background())
	assert.Equal(t, 1, executor2.count())
}

func TestEngine_HourlyTradeCap(t *testing.T) {
	var recs []domain.Recommendation
	strikes := []string{"B1900", "B1920", "B1940", "B1960", "B1980"}
	for _, s := range strikes {
		recs = append(recs, yoloRec("KXETH-25APR0212-"+s, domain.ConfidenceHigh, 1.0))
	}

	executor := newRecordingExecutor(8)
	engine := NewEngine(&stubRecommender{set: domain.ResultSet{Recommendations: recs}}, executor, nil, nil)

	cfg := testConfig()
	cfg.MaxTradesPerHour = 3
	require.NoError(t, engine.Start(cfg))
	waitForOrders(t, executor, 3)
	time.Sleep(50 * time.Millisecond)
	engine.Stop(context.Background())

	assert.Equal(t, 3, executor.count())
}

func TestEngine_SkipsNonTargetMarkets(t *testing.T) {
	recommender := &stubRecommender{set: domain.ResultSet{Recommendations: []domain.Recommendation{
		yoloRec("KXWEATHER-25APR02-T50", domain.ConfidenceHigh, 1.0),
	}}}
	executor := newRecordingExecutor(4)
	engine := NewEngine(recommender, executor, nil, nil)

	require.NoError(t, engine.Start(testConfig()))
	time.Sleep(50 * time.Millisecond)
	engine.Stop(context.Background())
	assert.Equal(t, 0, executor.count())
}

func TestEngine_DoubleStartRejected(t *testing.T) {
	engine := NewEngine(&stubRecommender{}, newRecordingExecutor(1), nil, nil)
	require.NoError(t, engine.Start(testConfig()))
	defer engine.Stop(context.Background())

	assert.ErrorIs(t, engine.Start(testConfig()), ErrAlreadyRunning)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	engine := NewEngine(&stubRecommender{}, newRecordingExecutor(1), nil, nil)
	require.NoError(t, engine.Start(testConfig()))

	engine.Stop(context.Background())
	engine.Stop(context.Background())
	assert.False(t, engine.Status().Running)
}
