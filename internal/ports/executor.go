package ports

import (
	"context"

	"github.com/dmorell/kalshibot/internal/domain"
)

// OrderRequest son los parámetros de una orden limit en el exchange.
type OrderRequest struct {
	MarketID      string
	Side          domain.Action
	Count         int
	Price         int // centavos, precio del lado elegido
	ClientOrderID string
}

// PlacedOrder es la confirmación devuelta por el exchange.
type PlacedOrder struct {
	OrderID  string
	MarketID string
	Side     domain.Action
	Count    int
	Price    int
}

// OrderExecutor envía órdenes reales al exchange. Lo consume el engine
// de trading automático; el core de recomendaciones nunca lo toca.
type OrderExecutor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (PlacedOrder, error)
}
