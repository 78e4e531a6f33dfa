package ports

import (
	"context"
	"time"
)

// ExecutedTrade es un trade ejecutado por el engine automático.
type ExecutedTrade struct {
	OrderID     string
	MarketID    string
	MarketTitle string
	Action      string
	Contracts   int
	Cost        float64
	Probability float64
	Confidence  string
	Strategy    string
	RiskLevel   string
	ExecutedAt  time.Time
}

// RunSummary es el resumen de una sesión del engine automático.
type RunSummary struct {
	StartedAt   time.Time
	StoppedAt   time.Time
	Strategy    string
	RiskLevel   string
	TotalTrades int
	TotalSpent  float64
}

// TradeStorage persiste el histórico de trades del engine automático.
type TradeStorage interface {
	SaveTrade(ctx context.Context, t ExecutedTrade) error
	GetTrades(ctx context.Context) ([]ExecutedTrade, error)
	SaveRunSummary(ctx context.Context, s RunSummary) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
