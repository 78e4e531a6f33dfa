package ports

import (
	"context"

	"github.com/dmorell/kalshibot/internal/domain"
)

// MarketProvider obtiene snapshots de mercados desde el exchange.
type MarketProvider interface {
	// GetMarkets devuelve los mercados activos, ya mapeados a domain.Market.
	GetMarkets(ctx context.Context) ([]domain.Market, error)

	// GetMarket devuelve el detalle de un mercado concreto.
	GetMarket(ctx context.Context, id string) (domain.Market, error)
}
