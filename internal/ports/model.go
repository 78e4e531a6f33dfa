package ports

import (
	"context"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Model es una fuente alternativa de recomendaciones (p.ej. un modelo
// externo). Cada implementación es best-effort: puede fallar o devolver
// una lista vacía y el caller cae a la siguiente fuente de la cadena.
// La implementación rule-based es obligatoria y siempre disponible.
type Model interface {
	// Name identifica la fuente para la procedencia del ResultSet.
	Name() string

	// Generate produce candidatos para la estrategia pedida.
	Generate(ctx context.Context, markets []domain.Market, strategy domain.Strategy, max int, risk domain.RiskLevel) ([]domain.Recommendation, error)
}
