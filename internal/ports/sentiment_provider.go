package ports

import (
	"context"

	"github.com/dmorell/kalshibot/internal/domain"
)

// SentimentProvider expone los agregados de sentiment del feed social,
// refrescados con su propio TTL independiente del cache de recomendaciones.
type SentimentProvider interface {
	// SeriesSentiment devuelve el mapa serie → sentiment agregado.
	// Un mapa vacío significa "sin datos", no un error.
	SeriesSentiment(ctx context.Context) (map[domain.Series]domain.SeriesSentiment, error)
}
