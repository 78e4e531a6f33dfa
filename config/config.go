package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del advisor.
type Config struct {
	Advisor  AdvisorConfig  `yaml:"advisor"`
	API      APIConfig      `yaml:"api"`
	Server   ServerConfig   `yaml:"server"`
	Yolo     YoloConfig     `yaml:"yolo"`
	Storage  StorageConfig  `yaml:"storage"`
	Tracking TrackingConfig `yaml:"tracking"`
	Log      LogConfig      `yaml:"log"`
}

// AdvisorConfig controla el ciclo de recomendación.
type AdvisorConfig struct {
	Strategy        string  `yaml:"strategy"`          // estrategia por defecto
	RiskLevel       string  `yaml:"risk_level"`        // low | medium | high
	MaxResults      int     `yaml:"max_results"`       // tamaño del set
	CacheDir        string  `yaml:"cache_dir"`         // caché de ResultSets
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"` // frescura de la caché
	ArbitrageMargin int     `yaml:"arbitrage_margin"`  // umbral yes+no en centavos
	VolBaseline     float64 `yaml:"vol_baseline"`      // stddev de referencia
	SentimentTTLMin int     `yaml:"sentiment_ttl_minutes"`
}

// APIConfig contiene el acceso al exchange.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"` // normalmente via KALSHI_API_KEY
	Demo    bool   `yaml:"demo"`
}

// ServerConfig controla el API HTTP.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// YoloConfig son los caps del engine de trading automático.
type YoloConfig struct {
	MaxSpendPerTrade float64 `yaml:"max_spend_per_trade"`
	MaxTradesPerHour int     `yaml:"max_trades_per_hour"`
	MaxTotalSpend    float64 `yaml:"max_total_spend"`
}

// StorageConfig controla el histórico de trades.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// TrackingConfig controla el ledger de performance.
type TrackingConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Si path está vacío se parte de los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CacheTTL devuelve la frescura de la caché como time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Advisor.CacheTTLMinutes) * time.Minute
}

// SentimentTTL devuelve la frescura del feed social como time.Duration.
func (c *Config) SentimentTTL() time.Duration {
	return time.Duration(c.Advisor.SentimentTTLMin) * time.Minute
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALSHI_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("KALSHI_API_BASE"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Advisor.Strategy == "" {
		cfg.Advisor.Strategy = "hybrid"
	}
	if cfg.Advisor.RiskLevel == "" {
		cfg.Advisor.RiskLevel = "medium"
	}
	if cfg.Advisor.MaxResults <= 0 {
		cfg.Advisor.MaxResults = 5
	}
	if cfg.Advisor.CacheDir == "" {
		cfg.Advisor.CacheDir = "cache"
	}
	if cfg.Advisor.CacheTTLMinutes <= 0 {
		cfg.Advisor.CacheTTLMinutes = 30
	}
	if cfg.Advisor.ArbitrageMargin <= 0 {
		cfg.Advisor.ArbitrageMargin = 95
	}
	if cfg.Advisor.VolBaseline <= 0 {
		cfg.Advisor.VolBaseline = 5.0
	}
	if cfg.Advisor.SentimentTTLMin <= 0 {
		cfg.Advisor.SentimentTTLMin = 5
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Yolo.MaxSpendPerTrade <= 0 {
		cfg.Yolo.MaxSpendPerTrade = 5.0
	}
	if cfg.Yolo.MaxTradesPerHour <= 0 {
		cfg.Yolo.MaxTradesPerHour = 3
	}
	if cfg.Yolo.MaxTotalSpend <= 0 {
		cfg.Yolo.MaxTotalSpend = 25.0
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "kalshibot.db"
	}
	if cfg.Tracking.Path == "" {
		cfg.Tracking.Path = "performance.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
