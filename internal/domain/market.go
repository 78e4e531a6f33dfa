package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Series es la familia de mercados que comparten el mismo subyacente.
// Se usa para agrupar candidatos en arbitraje y para los lookups de sentiment.
type Series string

// Series horarias objetivo del advisor.
const (
	SeriesNasdaq   Series = "KXNASDAQ100U" // Nasdaq-100 (horario)
	SeriesSP500    Series = "KXINXU"       // S&P 500 (horario)
	SeriesETHPrice Series = "KXETHD"       // Ethereum precio (horario)
	SeriesETHRange Series = "KXETH"        // Ethereum rango de precio (horario)
	SeriesBTCPrice Series = "KXBTCD"       // Bitcoin precio (horario)
	SeriesBTCRange Series = "KXBTC"        // Bitcoin rango de precio (horario)
)

// TargetSeries lista las series soportadas, en orden de matching.
// Las variantes largas van primero para que "KXETHD" no matchee como "KXETH".
var TargetSeries = []Series{
	SeriesNasdaq,
	SeriesSP500,
	SeriesETHPrice,
	SeriesETHRange,
	SeriesBTCPrice,
	SeriesBTCRange,
}

// rangeSeries son las familias con strikes de rango adyacentes (piernas de arbitraje).
var rangeSeries = map[Series]bool{
	SeriesETHRange: true,
	SeriesBTCRange: true,
}

// indexSeries son las familias de índice donde el precio YES debe ser
// monótono no creciente con el strike.
var indexSeries = map[Series]bool{
	SeriesNasdaq: true,
	SeriesSP500:  true,
}

// Market es el snapshot de un mercado binario de Kalshi dentro de un ciclo
// de análisis. Los precios van en centavos (0-100); cuando ambos lados
// existen se cumple yes + no == 100.
type Market struct {
	ID     string
	Ticker string

	// EventTicker agrupa los mercados del mismo evento horario y codifica
	// fecha y hora (KXETH-25AUG2914). Es la clave del filtro horario.
	EventTicker string

	Title     string
	Subtitle  string
	YesBid    int
	YesAsk    int
	NoBid     int
	NoAsk     int
	LastPrice int
	Volume24h int64 // centavos negociados en 24h
	CloseTime time.Time
	Series    Series
}

// SeriesOf devuelve la serie objetivo a la que pertenece un market ID,
// o "" si el mercado no es de una serie soportada.
func SeriesOf(marketID string) Series {
	for _, s := range TargetSeries {
		if strings.Contains(marketID, string(s)) {
			return s
		}
	}
	return ""
}

// IsTargetMarket devuelve true si el ID pertenece a una serie soportada.
func IsTargetMarket(marketID string) bool {
	return SeriesOf(marketID) != ""
}

// IsRangeSeries devuelve true para las familias de rango (KXETH, KXBTC).
func IsRangeSeries(s Series) bool {
	return rangeSeries[s]
}

// IsIndexSeries devuelve true para las familias de índice (KXNASDAQ100U, KXINXU).
func IsIndexSeries(s Series) bool {
	return indexSeries[s]
}

// StrikePrice extrae el strike del último segmento del ticker.
// Formatos: T19529.99 (threshold) y B1920 (rango). Devuelve 0 si no hay strike.
func StrikePrice(marketID string) float64 {
	parts := strings.Split(marketID, "-")
	if len(parts) < 3 {
		return 0
	}
	last := parts[len(parts)-1]
	if len(last) < 2 {
		return 0
	}
	if last[0] != 'T' && last[0] != 'B' {
		return 0
	}
	v, err := strconv.ParseFloat(last[1:], 64)
	if err != nil {
		return 0
	}
	return v
}

var (
	indexHourRe  = regexp.MustCompile(`H(\d{2})00`)
	cryptoHourRe = regexp.MustCompile(`(\d{2})$`)
)

// IsCurrentHourly devuelve true si el event ticker corresponde a la hora
// actual o a la siguiente. Los mercados de índice codifican la hora como
// H1200; los de crypto terminan en el número de hora (25APR0212).
func IsCurrentHourly(eventTicker string, now time.Time) bool {
	s := SeriesOf(eventTicker)
	if s == "" {
		return false
	}

	date := strings.ToUpper(now.Format("06Jan02"))
	if !strings.Contains(eventTicker, date) {
		return false
	}

	re := cryptoHourRe
	if IsIndexSeries(s) {
		re = indexHourRe
	}
	m := re.FindStringSubmatch(eventTicker)
	if m == nil {
		return false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return hour == now.Hour() || hour == (now.Hour()+1)%24
}

// FilterHourly deja solo los mercados de series objetivo cuyo evento
// corresponde a la hora actual o la siguiente. Si un mercado no trae
// event ticker se usa el ticker completo como fallback.
func FilterHourly(markets []Market, now time.Time) []Market {
	out := make([]Market, 0, len(markets))
	for _, m := range markets {
		ticker := m.EventTicker
		if ticker == "" {
			ticker = m.Ticker
		}
		if IsCurrentHourly(ticker, now) {
			out = append(out, m)
		}
	}
	return out
}
