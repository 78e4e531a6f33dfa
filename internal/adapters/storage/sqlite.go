// Package storage persiste el histórico del engine de trading automático
// en SQLite: una fila por trade ejecutado y un resumen por sesión.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmorell/kalshibot/internal/ports"
)

const schema = `
-- Una fila por trade ejecutado por el engine automático
CREATE TABLE IF NOT EXISTS trades (
    order_id     TEXT PRIMARY KEY,
    market_id    TEXT    NOT NULL,
    market_title TEXT,
    action       TEXT    NOT NULL,
    contracts    INTEGER NOT NULL DEFAULT 0,
    cost         REAL    NOT NULL DEFAULT 0,
    probability  REAL    NOT NULL DEFAULT 0,
    confidence   TEXT,
    strategy     TEXT    NOT NULL,
    risk_level   TEXT    NOT NULL,
    executed_at  DATETIME NOT NULL
);

-- Resumen por sesión del engine
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at   DATETIME NOT NULL,
    stopped_at   DATETIME NOT NULL,
    strategy     TEXT     NOT NULL,
    risk_level   TEXT     NOT NULL,
    total_trades INTEGER  NOT NULL DEFAULT 0,
    total_spent  REAL     NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_at     ON trades(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(market_id);
CREATE INDEX IF NOT EXISTS idx_runs_at       ON runs(started_at DESC);
`

// SQLiteStorage implementa ports.TradeStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

var _ ports.TradeStorage = (*SQLiteStorage)(nil)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveTrade inserta un trade ejecutado. El order ID es la clave primaria,
// así que reenviar el mismo trade es un error y no un duplicado silencioso.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, t ports.ExecutedTrade) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (order_id, market_id, market_title, action, contracts,
		                     cost, probability, confidence, strategy, risk_level, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, t.MarketID, t.MarketTitle, t.Action, t.Contracts,
		t.Cost, t.Probability, t.Confidence, t.Strategy, t.RiskLevel, t.ExecutedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: insert %s: %w", t.OrderID, err)
	}
	return nil
}

// GetTrades devuelve todos los trades, más recientes primero.
func (s *SQLiteStorage) GetTrades(ctx context.Context) ([]ports.ExecutedTrade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, market_id, market_title, action, contracts,
		        cost, probability, confidence, strategy, risk_level, executed_at
		 FROM trades ORDER BY executed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var out []ports.ExecutedTrade
	for rows.Next() {
		var t ports.ExecutedTrade
		var executedAt time.Time
		if err := rows.Scan(&t.OrderID, &t.MarketID, &t.MarketTitle, &t.Action, &t.Contracts,
			&t.Cost, &t.Probability, &t.Confidence, &t.Strategy, &t.RiskLevel, &executedAt); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan: %w", err)
		}
		t.ExecutedAt = executedAt
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetTrades: rows: %w", err)
	}
	return out, nil
}

// SaveRunSummary inserta el resumen de una sesión del engine.
func (s *SQLiteStorage) SaveRunSummary(ctx context.Context, r ports.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, stopped_at, strategy, risk_level, total_trades, total_spent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC(), r.StoppedAt.UTC(), r.Strategy, r.RiskLevel, r.TotalTrades, r.TotalSpent,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRunSummary: insert: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
