package ports

import (
	"context"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Notifier presenta un set de recomendaciones al usuario.
type Notifier interface {
	// Notify muestra el set en orden de ranking.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, set domain.ResultSet) error
}
