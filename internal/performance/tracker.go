// Package performance mantiene el ledger de recomendaciones emitidas y
// las métricas agregadas por estrategia. El ledger es un único fichero
// JSON; cada mutación lo reescribe entero bajo lock.
package performance

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Timeframes soportados por las métricas en ventana.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeAll   = "all"
)

var ErrInvalidTimeframe = errors.New("invalid timeframe")

// ledger es el layout on-disk del fichero de tracking.
type ledger struct {
	Recommendations map[domain.Strategy][]domain.PerformanceRecord `json:"recommendations"`
	Performance     map[domain.Strategy]domain.StrategyPerformance `json:"performance"`
}

// Tracker persiste el ledger y recomputa agregados en cada transición.
// Seguro para uso concurrente.
type Tracker struct {
	mu   sync.Mutex
	path string
	data ledger
	log  *slog.Logger
	now  func() time.Time
}

// NewTracker carga (o inicializa) el ledger en path. Un fichero corrupto
// se descarta con warning y se parte de un ledger vacío.
func NewTracker(path string, log *slog.Logger, now func() time.Time) (*Tracker, error) {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		path: path,
		data: newLedger(),
		log:  log,
		now:  now,
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Primer arranque, ledger vacío.
	case err != nil:
		return nil, fmt.Errorf("performance.NewTracker: read %s: %w", path, err)
	default:
		if uerr := json.Unmarshal(raw, &t.data); uerr != nil {
			log.Warn("performance ledger corrupt, starting fresh",
				"path", path, "err", uerr)
			t.data = newLedger()
		}
		if t.data.Recommendations == nil || t.data.Performance == nil {
			t.data = newLedger()
		}
	}
	return t, nil
}

func newLedger() ledger {
	return ledger{
		Recommendations: make(map[domain.Strategy][]domain.PerformanceRecord),
		Performance:     make(map[domain.Strategy]domain.StrategyPerformance),
	}
}

// Record añade una recomendación al ledger como entrada abierta y devuelve
// el registro creado con su ID asignado.
func (t *Tracker) Record(rec domain.Recommendation) (domain.PerformanceRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := domain.PerformanceRecord{
		ID:         uuid.NewString(),
		MarketID:   rec.MarketID,
		Strategy:   rec.Strategy,
		Action:     rec.Action,
		EntryPrice: rec.Probability,
		TargetExit: rec.TargetExit,
		StopLoss:   rec.StopLoss,
		Confidence: rec.Confidence,
		Timestamp:  t.now().Unix(),
		Status:     domain.StatusOpen,
	}
	t.data.Recommendations[rec.Strategy] = append(t.data.Recommendations[rec.Strategy], record)
	t.recompute(rec.Strategy)

	// Un fallo de persistencia no invalida el registro en memoria.
	if err := t.save(); err != nil {
		t.log.Warn("failed to save performance ledger", "err", err)
	}
	return record, nil
}

// UpdateStatus transiciona un registro por ID. exitPrice es opcional:
// cuando viene, la transición liquida result y profit/loss sea cierre o
// expiración; sin él un expirado queda sin resultado. Un ID desconocido
// devuelve (false, nil), no es un error.
func (t *Tracker) UpdateStatus(id string, status domain.Status, exitPrice *float64, notes string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("performance.Tracker.UpdateStatus: unknown status %q", status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for strat, records := range t.data.Recommendations {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			rec := &records[i]
			rec.Status = status
			if notes != "" {
				rec.Notes = notes
			}
			if exitPrice != nil {
				result, pnl := rec.Settle(*exitPrice)
				exitTS := t.now().Unix()
				rec.ExitPrice = exitPrice
				rec.ExitTimestamp = &exitTS
				rec.Result = &result
				rec.ProfitLoss = &pnl
			}
			t.recompute(strat)
			// Un fallo de persistencia no deshace la transición en memoria.
			if err := t.save(); err != nil {
				t.log.Warn("failed to save performance ledger", "err", err)
			}
			return true, nil
		}
	}
	return false, nil
}

// StrategyPerformance devuelve los agregados acumulados de una estrategia.
func (t *Tracker) StrategyPerformance(strat domain.Strategy) (domain.StrategyPerformance, error) {
	if _, err := domain.ParseStrategy(string(strat)); err != nil {
		return domain.StrategyPerformance{}, fmt.Errorf("performance.Tracker.StrategyPerformance: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	perf, ok := t.data.Performance[strat]
	if !ok {
		return domain.StrategyPerformance{Strategy: strat}, nil
	}
	return perf, nil
}

// Timeframe deriva métricas sobre una ventana temporal en lectura:
// day/week/month miran hacia atrás desde ahora, all no recorta.
// strategy "all" agrega todas las estrategias.
func (t *Tracker) Timeframe(strategyName, timeframe string) (domain.WindowedMetrics, error) {
	var cutoff int64
	now := t.now()
	switch timeframe {
	case TimeframeDay:
		cutoff = now.Add(-24 * time.Hour).Unix()
	case TimeframeWeek:
		cutoff = now.Add(-7 * 24 * time.Hour).Unix()
	case TimeframeMonth:
		cutoff = now.Add(-30 * 24 * time.Hour).Unix()
	case TimeframeAll:
		cutoff = 0
	default:
		return domain.WindowedMetrics{}, fmt.Errorf("performance.Tracker.Timeframe: %w: %q", ErrInvalidTimeframe, timeframe)
	}
	if strategyName != "all" {
		if _, err := domain.ParseStrategy(strategyName); err != nil {
			return domain.WindowedMetrics{}, fmt.Errorf("performance.Tracker.Timeframe: %w", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	metrics := domain.WindowedMetrics{Timeframe: timeframe, Strategy: strategyName}
	var totalProfit, totalLoss float64
	for strat, records := range t.data.Recommendations {
		if strategyName != "all" && string(strat) != strategyName {
			continue
		}
		for _, rec := range records {
			if rec.Timestamp < cutoff {
				continue
			}
			metrics.RecommendationCount++
			switch {
			case rec.Status == domain.StatusOpen:
				metrics.OpenCount++
			case rec.Result != nil && *rec.Result == domain.ResultWin:
				metrics.WinCount++
				totalProfit += *rec.ProfitLoss
			case rec.Result != nil && *rec.Result == domain.ResultLoss:
				metrics.LossCount++
				totalLoss += *rec.ProfitLoss
			}
		}
	}
	closed := metrics.WinCount + metrics.LossCount
	if closed > 0 {
		metrics.WinRate = round1(float64(metrics.WinCount) / float64(closed) * 100)
	}
	if metrics.WinCount > 0 {
		metrics.AvgProfit = round2(totalProfit / float64(metrics.WinCount))
	}
	if metrics.LossCount > 0 {
		metrics.AvgLoss = round2(totalLoss / float64(metrics.LossCount))
	}
	metrics.TotalProfitLoss = round2(totalProfit + totalLoss)
	metrics.LastUpdated = now.Unix()
	return metrics, nil
}

// Recommendations devuelve registros filtrados por estrategia y estado
// ("all" no filtra), ordenados por timestamp descendente, con paginación.
func (t *Tracker) Recommendations(strategyName, status string, limit, offset int) ([]domain.PerformanceRecord, error) {
	if strategyName != "all" {
		if _, err := domain.ParseStrategy(strategyName); err != nil {
			return nil, fmt.Errorf("performance.Tracker.Recommendations: %w", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.PerformanceRecord
	for strat, records := range t.data.Recommendations {
		if strategyName != "all" && string(strat) != strategyName {
			continue
		}
		for _, rec := range records {
			if status != "" && status != "all" && string(rec.Status) != status {
				continue
			}
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Summary agrega los totales de todas las estrategias.
func (t *Tracker) Summary() domain.PerformanceSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s domain.PerformanceSummary
	for _, records := range t.data.Recommendations {
		for _, rec := range records {
			s.TotalRecommendations++
			switch {
			case rec.Status == domain.StatusOpen:
				s.TotalOpen++
			case rec.Result != nil && *rec.Result == domain.ResultWin:
				s.TotalWins++
				s.TotalProfitLoss += *rec.ProfitLoss
			case rec.Result != nil && *rec.Result == domain.ResultLoss:
				s.TotalLosses++
				s.TotalProfitLoss += *rec.ProfitLoss
			}
		}
	}
	closed := s.TotalWins + s.TotalLosses
	if closed > 0 {
		s.WinRate = round1(float64(s.TotalWins) / float64(closed) * 100)
	}
	s.TotalProfitLoss = round2(s.TotalProfitLoss)
	s.LastUpdated = t.now().Unix()
	return s
}

// Simulate puebla el ledger con n registros sintéticos por estrategia
// básica, mezclando abiertos, ganadores y perdedores. Determinista para
// una misma seed; pensado para demos y desarrollo de la UI.
func (t *Tracker) Simulate(n int, seed int64) error {
	rnd := rand.New(rand.NewSource(seed))
	strategies := []domain.Strategy{
		domain.StrategyMomentum,
		domain.StrategyMeanReversion,
		domain.StrategyHybrid,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	base := t.now()
	for _, strat := range strategies {
		for i := 0; i < n; i++ {
			action := domain.ActionYes
			if rnd.Intn(2) == 1 {
				action = domain.ActionNo
			}
			entry := float64(20 + rnd.Intn(60))
			rec := domain.PerformanceRecord{
				ID:         uuid.NewString(),
				MarketID:   fmt.Sprintf("SIM-%s-%d", strat, i),
				Strategy:   strat,
				Action:     action,
				EntryPrice: entry,
				TargetExit: entry + 15,
				StopLoss:   entry - 10,
				Confidence: domain.ConfidenceMedium,
				Timestamp:  base.Add(-time.Duration(rnd.Intn(720)) * time.Hour).Unix(),
				Status:     domain.StatusOpen,
				Notes:      "registro simulado",
			}
			// Dos de cada tres se cierran con un desenlace aleatorio.
			if rnd.Intn(3) != 0 {
				move := float64(1 + rnd.Intn(20))
				exit := entry + move
				if rnd.Intn(2) == 1 {
					exit = entry - move
				}
				result, pnl := rec.Settle(exit)
				exitTS := rec.Timestamp + int64(rnd.Intn(86400))
				rec.Status = domain.StatusClosed
				rec.ExitPrice = &exit
				rec.ExitTimestamp = &exitTS
				rec.Result = &result
				rec.ProfitLoss = &pnl
			}
			t.data.Recommendations[strat] = append(t.data.Recommendations[strat], rec)
		}
		t.recompute(strat)
	}
	if err := t.save(); err != nil {
		return fmt.Errorf("performance.Tracker.Simulate: %w", err)
	}
	return nil
}

// recompute recalcula los agregados de una estrategia recorriendo todos
// sus registros. Caller debe tener el lock.
func (t *Tracker) recompute(strat domain.Strategy) {
	perf := domain.StrategyPerformance{Strategy: strat}
	var totalProfit, totalLoss float64
	for _, rec := range t.data.Recommendations[strat] {
		switch {
		case rec.Status == domain.StatusOpen:
			perf.OpenCount++
		case rec.Result != nil && *rec.Result == domain.ResultWin:
			perf.WinCount++
			totalProfit += *rec.ProfitLoss
		case rec.Result != nil && *rec.Result == domain.ResultLoss:
			perf.LossCount++
			totalLoss += *rec.ProfitLoss
		}
	}
	closed := perf.WinCount + perf.LossCount
	if closed > 0 {
		perf.WinRate = round1(float64(perf.WinCount) / float64(closed) * 100)
		perf.Accuracy = round1(float64(perf.WinCount) / float64(closed) * 100)
	}
	if perf.WinCount > 0 {
		perf.AvgProfit = round2(totalProfit / float64(perf.WinCount))
	}
	if perf.LossCount > 0 {
		perf.AvgLoss = round2(totalLoss / float64(perf.LossCount))
	}
	perf.TotalProfitLoss = round2(totalProfit + totalLoss)
	perf.LastUpdated = t.now().Unix()
	t.data.Performance[strat] = perf
}

// save reescribe el ledger completo. Escritura vía fichero temporal y
// rename para no dejar un JSON truncado si el proceso muere a medias.
func (t *Tracker) save() error {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
