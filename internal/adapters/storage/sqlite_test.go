package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorell/kalshibot/internal/adapters/storage"
	"github.com/dmorell/kalshibot/internal/ports"
)

func makeTrade(orderID string, executedAt time.Time) ports.ExecutedTrade {
	return ports.ExecutedTrade{
		OrderID:     orderID,
		MarketID:    "KXETH-25APR0212-B1920",
		MarketTitle: "ETH range 1920",
		Action:      "YES",
		Contracts:   3,
		Cost:        2.10,
		Probability: 70,
		Confidence:  "Medium",
		Strategy:    "momentum",
		RiskLevel:   "medium",
		ExecutedAt:  executedAt,
	}
}

func TestSQLiteStorage_SaveAndGetTrades(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveTrade(context.Background(), makeTrade("o1", base.Add(-time.Minute))))
	require.NoError(t, db.SaveTrade(context.Background(), makeTrade("o2", base)))

	trades, err := db.GetTrades(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Más recientes primero.
	assert.Equal(t, "o2", trades[0].OrderID)
	assert.Equal(t, "o1", trades[1].OrderID)
	assert.Equal(t, 2.10, trades[0].Cost)
	assert.Equal(t, "momentum", trades[0].Strategy)
}

func TestSQLiteStorage_DuplicateOrderIDRejected(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	require.NoError(t, db.SaveTrade(context.Background(), makeTrade("o1", now)))
	assert.Error(t, db.SaveTrade(context.Background(), makeTrade("o1", now)))
}

func TestSQLiteStorage_SaveRunSummary(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	summary := ports.RunSummary{
		StartedAt:   time.Now().UTC().Add(-time.Hour),
		StoppedAt:   time.Now().UTC(),
		Strategy:    "hybrid",
		RiskLevel:   "medium",
		TotalTrades: 4,
		TotalSpent:  12.5,
	}
	assert.NoError(t, db.SaveRunSummary(context.Background(), summary))
}
