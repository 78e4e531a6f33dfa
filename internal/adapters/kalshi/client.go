// Package kalshi implementa el acceso HTTP al exchange: snapshot de
// mercados y envío de órdenes, con rate limiting y retries.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/ports"
)

const (
	defaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	// Rate limit básico de Kalshi: 10 lecturas/s. Nos quedamos por debajo.
	readRatePerSec  = 8
	writeRatePerSec = 2

	marketsPageLimit = 200

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Kalshi. Implementa ports.MarketProvider y
// ports.OrderExecutor.
type Client struct {
	http         *http.Client
	base         string
	apiKey       string
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
}

var (
	_ ports.MarketProvider = (*Client)(nil)
	_ ports.OrderExecutor  = (*Client)(nil)
)

// NewClient crea un Client contra baseURL (producción si está vacío).
// apiKey puede ir vacía para los endpoints públicos de mercado.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		base:         baseURL,
		apiKey:       apiKey,
		readLimiter:  rate.NewLimiter(readRatePerSec, 4),
		writeLimiter: rate.NewLimiter(writeRatePerSec, 1),
	}
}

// marketPayload es el shape de un mercado en la respuesta del exchange.
type marketPayload struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	LastPrice    int    `json:"last_price"`
	Volume24h    int64  `json:"volume_24h"`
	CloseTimeRaw string `json:"close_time"`
}

func (p marketPayload) toDomain() domain.Market {
	closeTime, _ := time.Parse(time.RFC3339, p.CloseTimeRaw)
	return domain.Market{
		ID:          p.Ticker,
		Ticker:      p.Ticker,
		EventTicker: p.EventTicker,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		YesBid:      p.YesBid,
		YesAsk:      p.YesAsk,
		NoBid:       p.NoBid,
		NoAsk:       p.NoAsk,
		LastPrice:   p.LastPrice,
		Volume24h:   p.Volume24h,
		CloseTime:   closeTime,
		Series:      domain.SeriesOf(p.Ticker),
	}
}

// GetMarkets devuelve los mercados abiertos de las series objetivo,
// paginando por serie hasta agotar el cursor.
func (c *Client) GetMarkets(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market
	for _, series := range domain.TargetSeries {
		cursor := ""
		for {
			q := url.Values{}
			q.Set("series_ticker", string(series))
			q.Set("status", "open")
			q.Set("limit", fmt.Sprint(marketsPageLimit))
			if cursor != "" {
				q.Set("cursor", cursor)
			}

			var resp struct {
				Markets []marketPayload `json:"markets"`
				Cursor  string          `json:"cursor"`
			}
			if err := c.get(ctx, c.base+"/markets?"+q.Encode(), &resp); err != nil {
				return nil, fmt.Errorf("kalshi.Client.GetMarkets: series %s: %w", series, err)
			}
			for _, p := range resp.Markets {
				out = append(out, p.toDomain())
			}
			if resp.Cursor == "" || len(resp.Markets) == 0 {
				break
			}
			cursor = resp.Cursor
		}
	}
	return out, nil
}

// GetMarket devuelve el detalle de un ticker concreto.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	var resp struct {
		Market marketPayload `json:"market"`
	}
	if err := c.get(ctx, c.base+"/markets/"+url.PathEscape(id), &resp); err != nil {
		return domain.Market{}, fmt.Errorf("kalshi.Client.GetMarket: %s: %w", id, err)
	}
	if resp.Market.Ticker == "" {
		return domain.Market{}, fmt.Errorf("kalshi.Client.GetMarket: %s: %w", id, domain.ErrNotFound)
	}
	return resp.Market.toDomain(), nil
}

// CreateOrder envía una orden limit al exchange.
func (c *Client) CreateOrder(ctx context.Context, req ports.OrderRequest) (ports.PlacedOrder, error) {
	side := "yes"
	priceField := "yes_price"
	if req.Side == domain.ActionNo {
		side = "no"
		priceField = "no_price"
	}
	body := map[string]any{
		"ticker":          req.MarketID,
		"action":          "buy",
		"side":            side,
		"type":            "limit",
		"count":           req.Count,
		priceField:        req.Price,
		"client_order_id": req.ClientOrderID,
	}

	var resp struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
	}
	if err := c.post(ctx, c.base+"/portfolio/orders", body, &resp); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("kalshi.Client.CreateOrder: %s: %w", req.MarketID, err)
	}
	return ports.PlacedOrder{
		OrderID:  resp.Order.OrderID,
		MarketID: req.MarketID,
		Side:     req.Side,
		Count:    req.Count,
		Price:    req.Price,
	}, nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, c.readLimiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		c.authorize(req)
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	return c.doWithRetry(ctx, c.writeLimiter, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		c.authorize(req)
		return c.http.Do(req)
	}, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// doWithRetry ejecuta la función con backoff exponencial, respetando el
// contexto y el rate limiter en cada intento.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
