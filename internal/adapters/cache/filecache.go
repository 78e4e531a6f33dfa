// Package cache implementa la caché de ResultSets sobre el filesystem:
// un fichero JSON por combinación (estrategia, riesgo) con TTL.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dmorell/kalshibot/internal/domain"
)

// DefaultTTL es la frescura por defecto de una entrada.
const DefaultTTL = 30 * time.Minute

// FileCache guarda cada ResultSet en dir/<estrategia>_<riesgo>.json.
// Las entradas expiradas se quedan en disco; expirar solo afecta a la
// lectura, igual que una entrada ausente.
type FileCache struct {
	dir string
	ttl time.Duration
	log *slog.Logger
	now func() time.Time
}

func NewFileCache(dir string, ttl time.Duration, log *slog.Logger) *FileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileCache{dir: dir, ttl: ttl, log: log, now: time.Now}
}

// Get devuelve el set cacheado si existe y sigue fresco. Un fichero
// ilegible o corrupto cuenta como miss, nunca como error.
func (c *FileCache) Get(strat domain.Strategy, risk domain.RiskLevel) (domain.ResultSet, bool) {
	path := c.entryPath(strat, risk)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("unreadable cache entry", "path", path, "err", err)
		}
		return domain.ResultSet{}, false
	}

	var set domain.ResultSet
	if err := json.Unmarshal(raw, &set); err != nil {
		c.log.Warn("corrupt cache entry", "path", path, "err", err)
		return domain.ResultSet{}, false
	}
	if c.now().Sub(set.Timestamp) > c.ttl {
		return domain.ResultSet{}, false
	}
	return set, true
}

// Put escribe el set en su fichero. El caller decide qué hacer con el
// error; el flujo de recomendación lo loguea y sigue.
func (c *FileCache) Put(set domain.ResultSet) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache.FileCache.Put: create %s: %w", c.dir, err)
	}
	raw, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("cache.FileCache.Put: marshal: %w", err)
	}
	path := c.entryPath(set.Strategy, set.RiskLevel)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("cache.FileCache.Put: write %s: %w", path, err)
	}
	return nil
}

func (c *FileCache) entryPath(strat domain.Strategy, risk domain.RiskLevel) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", strat, risk))
}
