package domain

import (
	"errors"
	"fmt"
	"time"
)

// Action es el lado de un contrato binario.
type Action string

const (
	ActionYes Action = "YES"
	ActionNo  Action = "NO"
)

// Confidence es el tier de confianza de un candidato. Se usa tanto para el
// filtro de riesgo como para el ranking del blender.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Rank devuelve el orden numérico del tier (High=3, Medium=2, Low=1).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// RiskLevel es el tier de riesgo elegido por el caller. Controla el sizing
// de posiciones y la confianza mínima aceptable.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Admits devuelve true si el tier de riesgo acepta candidatos con la
// confianza dada: low solo High, medium excluye Low, high acepta todo.
func (r RiskLevel) Admits(c Confidence) bool {
	switch r {
	case RiskLow:
		return c == ConfidenceHigh
	case RiskMedium:
		return c != ConfidenceLow
	default:
		return true
	}
}

// Strategy identifica el origen de una recomendación.
type Strategy string

const (
	StrategyMomentum      Strategy = "momentum"
	StrategyMeanReversion Strategy = "mean-reversion"
	StrategyHybrid        Strategy = "hybrid"
	StrategyArbitrage     Strategy = "arbitrage"
	StrategyVolatility    Strategy = "volatility"
	StrategySentiment     Strategy = "sentiment"
	StrategyCombined      Strategy = "combined"
)

// Strategies lista todas las estrategias soportadas.
var Strategies = []Strategy{
	StrategyMomentum,
	StrategyMeanReversion,
	StrategyHybrid,
	StrategyArbitrage,
	StrategyVolatility,
	StrategySentiment,
	StrategyCombined,
}

// Errores de validación y lookup que el caller puede mapear a HTTP.
var (
	ErrInvalidStrategy  = errors.New("invalid strategy")
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	ErrNotFound         = errors.New("not found")
	ErrUpstream         = errors.New("upstream unavailable")
)

// ParseStrategy valida un nombre de estrategia.
func ParseStrategy(s string) (Strategy, error) {
	for _, v := range Strategies {
		if Strategy(s) == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// ParseRiskLevel valida un nivel de riesgo.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRiskLevel, s)
}

// Recommendation es un candidato producido por exactamente un scorer.
// Vive dentro de un ciclo de generación hasta que el blender lo acepta
// o lo descarta.
type Recommendation struct {
	MarketID    string     `json:"market_id"`
	MarketTitle string     `json:"market"`
	Action      Action     `json:"action"`
	Contracts   int        `json:"contracts"`
	Probability float64    `json:"probability"` // 0-100, base de precio usada
	Cost        float64    `json:"cost"`        // dólares
	TargetExit  float64    `json:"target_exit"` // nivel de precio 0-100
	StopLoss    float64    `json:"stop_loss"`   // nivel de precio 0-100
	Confidence  Confidence `json:"confidence"`
	Rationale   string     `json:"rationale"`
	Strategy    Strategy   `json:"strategy"`
}

// ResultSet es el output final del blender: secuencia ordenada, acotada y
// sin mercados repetidos, con la procedencia del ciclo que la generó.
type ResultSet struct {
	Recommendations []Recommendation `json:"recommendations"`
	Timestamp       time.Time        `json:"timestamp"`
	Source          string           `json:"source"`
	Strategy        Strategy         `json:"strategy"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	Cached          bool             `json:"cached"`
}

/// SeriesSentiment es el contrato que consume la estrategia de sentiment:
// agregados de actividad buy/sell por serie del feed social.
type SeriesSentiment struct {
	Sentiment       string  `json:"sentiment"` // bullish | slightly_bullish | neutral | slightly_bearish | bearish
	ActivityLevel   string  `json:"activity_level"`
	Confidence      string  `json:"confidence"` // low | medium | high
	BuyPercentage   float64 `json:"buy_percentage"`
	SellPercentage  float64 `json:"sell_percentage"`
	TotalTrades     int     `json:"total_trades"`
	TotalActivities int     `json:"total_activities"`
	VolumeChange    float64 `json:"volume_change"`
}

// Bullish devuelve true para los sentiments alcistas.
func (s SeriesSentiment) Bullish() bool {
	return s.Sentiment == "bullish" || s.Sentiment == "slightly_bullish"
}

// Bearish devuelve true para los sentiments bajistas.
func (s SeriesSentiment) Bearish() bool {
	return s.Sentiment == "bearish" || s.Sentiment == "slightly_bearish"
}
