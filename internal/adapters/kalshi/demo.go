package kalshi

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

// Demo genera mercados sintéticos de las series objetivo para la hora
// actual, sin tocar la red. Determinista para una misma seed y hora;
// implementa ports.MarketProvider.
type Demo struct {
	seed int64
	now  func() time.Time
}

var _ ports.MarketProvider = (*Demo)(nil)

func NewDemo(seed int64) *Demo {
	return &Demo{seed: seed, now: time.Now}
}

// GetMarkets devuelve un set fijo de mercados por serie: varios strikes
// adyacentes por familia, con precios que dejan hueco a cada estrategia.
func (d *Demo) GetMarkets(_ context.Context) ([]domain.Market, error) {
	now := d.now()
	rnd := rand.New(rand.NewSource(d.seed + int64(now.Hour())))
	date := strings.ToUpper(now.Format("06Jan02"))

	var out []domain.Market
	for _, series := range domain.TargetSeries {
		event := d.eventTicker(series, date, now.Hour())
		base := d.baseStrike(series)
		for i := 0; i < 4; i++ {
			strike := base + float64(i)*d.strikeStep(series)
			yesAsk := 15 + rnd.Intn(75)
			yesBid := yesAsk - 2
			if yesBid < 1 {
				yesBid = 1
			}
			prefix := "T"
			if domain.IsRangeSeries(series) {
				prefix = "B"
			}
			ticker := fmt.Sprintf("%s-%s%.0f", event, prefix, strike)
			out = append(out, domain.Market{
				ID:          ticker,
				Ticker:      ticker,
				EventTicker: event,
				Title:       fmt.Sprintf("%s above %.0f?", series, strike),
				Subtitle:    fmt.Sprintf("Cierra %s %02d:00", date, now.Hour()),
				YesBid:      yesBid,
				YesAsk:      yesAsk,
				NoBid:       100 - yesAsk,
				NoAsk:       100 - yesBid,
				LastPrice:   yesBid,
				Volume24h:   int64(rnd.Intn(500_000)),
				CloseTime:   now.Truncate(time.Hour).Add(time.Hour),
				Series:      series,
			})
		}
	}
	return out, nil
}

// GetMarket regenera el set y busca el ticker pedido.
func (d *Demo) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	markets, err := d.GetMarkets(ctx)
	if err != nil {
		return domain.Market{}, err
	}
	for _, m := range markets {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Market{}, fmt.Errorf("kalshi.Demo.GetMarket: %s: %w", id, domain.ErrNotFound)
}

func (d *Demo) eventTicker(series domain.Series, date string, hour int) string {
	if domain.IsIndexSeries(series) {
		return fmt.Sprintf("%s-%sH%02d00", series, date, hour)
	}
	return fmt.Sprintf("%s-%s%02d", series, date, hour)
}

func (d *Demo) baseStrike(series domain.Series) float64 {
	switch series {
	case domain.SeriesNasdaq:
		return 19500
	case domain.SeriesSP500:
		return 5600
	case domain.SeriesETHPrice, domain.SeriesETHRange:
		return 2600
	default:
		return 64000
	}
}

func (d *Demo) strikeStep(series domain.Series) float64 {
	switch series {
	case domain.SeriesNasdaq:
		return 50
	case domain.SeriesSP500:
		return 20
	case domain.SeriesETHPrice, domain.SeriesETHRange:
		return 20
	default:
		return 250
	}
}

// PaperExecutor simula el envío de órdenes: asigna un order ID y registra
// la orden en memoria. Implementa ports.OrderExecutor para el modo demo.
type PaperExecutor struct {
	mu     sync.Mutex
	orders []ports.PlacedOrder
}

var _ ports.OrderExecutor = (*PaperExecutor)(nil)

func NewPaperExecutor() *PaperExecutor { return &PaperExecutor{} }

func (e *PaperExecutor) CreateOrder(_ context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	order := ports.PlacedOrder{
		OrderID:  uuid.NewString(),
		MarketID: req.MarketID,
		Side:     req.Side,
		Count:    req.Count,
		Price:    req.Price,
	}
	e.mu.Lock()
	e.orders = append(e.orders, order)
	e.mu.Unlock()
	return order, nil
}

// Orders devuelve una copia de las órdenes simuladas hasta ahora.
func (e *PaperExecutor) Orders() []ports.PlacedOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ports.PlacedOrder, len(e.orders))
	copy(out, e.orders)
	return out
}
