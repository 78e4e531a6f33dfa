package domain

// Status es el estado de ciclo de vida de un registro de performance.
// open es inicial; closed y expired son terminales.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
)

// Valid devuelve true para los estados conocidos.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed || s == StatusExpired
}

// Result es el desenlace realizado de un registro cerrado.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// PerformanceRecord es una entrada del ledger append-only de recomendaciones
// emitidas. Se crea en open y solo muta via la transición de estado.
type PerformanceRecord struct {
	ID            string   `json:"id"`
	MarketID      string   `json:"market_id"`
	Strategy      Strategy `json:"strategy"`
	Action        Action   `json:"action"`
	EntryPrice    float64  `json:"entry_price"`
	TargetExit    float64  `json:"target_exit"`
	StopLoss      float64  `json:"stop_loss"`
	Confidence    Confidence `json:"confidence"`
	Timestamp     int64    `json:"timestamp"` // unix segundos
	Status        Status   `json:"status"`
	ExitPrice     *float64 `json:"exit_price"`
	ExitTimestamp *int64   `json:"exit_timestamp"`
	Result        *Result  `json:"result"`
	ProfitLoss    *float64 `json:"profit_loss"`
	Notes         string   `json:"notes"`
}

// Settle calcula result y profit/loss para un exit price dado.
// YES gana si el precio subió; NO gana si bajó. El P&L es la distancia
// recorrida a favor de la posición, en centavos.
func (r PerformanceRecord) Settle(exitPrice float64) (Result, float64) {
	if r.Action == ActionYes {
		if exitPrice > r.EntryPrice {
			return ResultWin, exitPrice - r.EntryPrice
		}
		return ResultLoss, exitPrice - r.EntryPrice
	}
	if exitPrice < r.EntryPrice {
		return ResultWin, r.EntryPrice - exitPrice
	}
	return ResultLoss, r.EntryPrice - exitPrice
}

// StrategyPerformance son las métricas agregadas de una estrategia,
// recomputadas sobre el ledger completo en cada transición.
type StrategyPerformance struct {
	Strategy        Strategy `json:"strategy"`
	WinCount        int      `json:"win_count"`
	LossCount       int      `json:"loss_count"`
	OpenCount       int      `json:"open_count"`
	WinRate         float64  `json:"win_rate"`
	AvgProfit       float64  `json:"avg_profit"`
	AvgLoss         float64  `json:"avg_loss"`
	TotalProfitLoss float64  `json:"total_profit_loss"`
	Accuracy        float64  `json:"accuracy"`
	LastUpdated     int64    `json:"last_updated"`
}

// WindowedMetrics son métricas derivadas en lectura sobre una ventana
// temporal. Nunca se cachean.
type WindowedMetrics struct {
	Timeframe           string   `json:"timeframe"`
	Strategy            string   `json:"strategy"`
	WinCount            int      `json:"win_count"`
	LossCount           int      `json:"loss_count"`
	OpenCount           int      `json:"open_count"`
	WinRate             float64  `json:"win_rate"`
	AvgProfit           float64  `json:"avg_profit"`
	AvgLoss             float64  `json:"avg_loss"`
	TotalProfitLoss     float64  `json:"total_profit_loss"`
	RecommendationCount int      `json:"recommendation_count"`
	LastUpdated         int64    `json:"last_updated"`
}

// PerformanceSummary agrega los totales de todas las estrategias.
type PerformanceSummary struct {
	TotalRecommendations int     `json:"total_recommendations"`
	TotalWins            int     `json:"total_wins"`
	TotalLosses          int     `json:"total_losses"`
	TotalOpen            int     `json:"total_open"`
	WinRate              float64 `json:"win_rate"`
	TotalProfitLoss      float64 `json:"total_profit_loss"`
	LastUpdated          int64   `json:"last_updated"`
}
