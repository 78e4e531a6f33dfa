package recommend

import (
	"context"
	"fmt"

	"github.com/dmorell/kalshibot/internal/domain"
	"github.com/dmorell/kalshibot/internal/strategy"
)

// RuleBased es el modelo determinista de último recurso: siempre produce
// candidatos a partir de los scorers de momentum y mean-reversion, sin
// depender de servicios externos.
type RuleBased struct {
	momentum  *strategy.Momentum
	reversion *strategy.MeanReversion
}

func NewRuleBased(phrases *strategy.Phrases) *RuleBased {
	return &RuleBased{
		momentum:  strategy.NewMomentum(phrases),
		reversion: strategy.NewMeanReversion(phrases),
	}
}

func (m *RuleBased) Name() string { return "rule_based" }

// Generate produce candidatos crudos para las estrategias que cubre el
// modelo. El filtrado por riesgo y el dedup los aplica el blender aguas
// arriba; aquí el riesgo solo influye en el split hybrid.
func (m *RuleBased) Generate(ctx context.Context, markets []domain.Market, strat domain.Strategy, max int, risk domain.RiskLevel) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recommend.RuleBased.Generate: %w", err)
	}

	switch strat {
	case domain.StrategyMomentum:
		return m.momentum.Analyze(strategy.Input{Markets: markets, Max: max, Risk: risk}), nil
	case domain.StrategyMeanReversion:
		return m.reversion.Analyze(strategy.Input{Markets: markets, Max: max, Risk: risk}), nil
	case domain.StrategyHybrid:
		nMom, nRev := HybridSplit(max, risk)
		recs := m.momentum.Analyze(strategy.Input{Markets: markets, Max: nMom, Risk: risk})
		recs = append(recs, m.reversion.Analyze(strategy.Input{Markets: markets, Max: nRev, Risk: risk})...)
		return recs, nil
	default:
		return nil, fmt.Errorf("recommend.RuleBased.Generate: strategy %q outside this model: %w", strat, domain.ErrInvalidStrategy)
	}
}
