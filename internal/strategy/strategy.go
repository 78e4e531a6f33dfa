package strategy

import (
	"math"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Input es todo lo que un scorer puede consumir en un ciclo de análisis.
// Markets es obligatorio; History y Sentiment son side-channels que solo
// algunos scorers miran. Los scorers son funciones puras de este input.
type Input struct {
	Markets []domain.Market

	// History son series cortas de precios YES por market ID (volatility).
	History map[string][]int

	// Sentiment son los agregados del feed social por serie (sentiment).
	Sentiment map[domain.Series]domain.SeriesSentiment

	// Max es el número de recomendaciones pedido por el caller.
	Max int

	// Risk controla el sizing de posiciones de cada scorer.
	Risk domain.RiskLevel
}

// Scorer produce cero o más candidatos a partir de un Input.
// Input vacío devuelve lista vacía, nunca un error.
type Scorer interface {
	Name() domain.Strategy
	Analyze(in Input) []domain.Recommendation
}

// round1 redondea a 1 decimal (probabilidades y niveles de precio).
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 redondea a 2 decimales (costes en dólares).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampCents limita un nivel de precio al rango operable [1, 99].
func clampCents(v int) int {
	if v < 1 {
		return 1
	}
	if v > 99 {
		return 99
	}
	return v
}
