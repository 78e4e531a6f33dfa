package recommend

import (
	"sort"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Proporciones del split hybrid entre momentum y mean-reversion según
// riesgo: low favorece la sub-estrategia conservadora (mean-reversion),
// high la agresiva (momentum).
const (
	hybridLowMomentumShare  = 0.4
	hybridHighMomentumShare = 0.7
	hybridMidMomentumShare  = 0.5
)

// HybridSplit reparte max entre momentum y mean-reversion según riesgo.
// El lado de momentum tiene piso de 1 cuando max lo permite.
func HybridSplit(max int, risk domain.RiskLevel) (momentum, meanReversion int) {
	share := hybridMidMomentumShare
	switch risk {
	case domain.RiskLow:
		share = hybridLowMomentumShare
	case domain.RiskHigh:
		share = hybridHighMomentumShare
	}
	momentum = int(float64(max) * share)
	if momentum < 1 {
		momentum = 1
	}
	meanReversion = max - momentum
	return momentum, meanReversion
}

// FilterByRisk descarta los candidatos cuya confianza no admite el tier:
// low solo acepta High, medium excluye Low, high acepta todo.
func FilterByRisk(recs []domain.Recommendation, risk domain.RiskLevel) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(recs))
	for _, r := range recs {
		if risk.Admits(r.Confidence) {
			out = append(out, r)
		}
	}
	return out
}

// SortByConfidence ordena por rank de confianza descendente, con desempate
// por coste descendente (a igual confianza, preferimos la posición mayor).
// Estable: candidatos empatados conservan su orden de generación.
func SortByConfidence(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Confidence.Rank(), recs[j].Confidence.Rank()
		if ri != rj {
			return ri > rj
		}
		return recs[i].Cost > recs[j].Cost
	})
}

// Blend combina las listas de candidatos en un set final acotado y diverso.
//
// Las listas se procesan en el orden dado (orden de declaración de
// sub-estrategias) y dentro de cada lista en orden de generación; ese
// orden fijo hace determinista la regla "la primera aparición gana".
//
// Pasos: filtro de riesgo sobre la unión, dedup por market ID quedándose
// con la primera aparición, y si faltan huecos, relleno desde el pool
// sobrante ordenado por confianza (y coste a igualdad), truncando a max.
//
// Postcondiciones: len <= max, market IDs únicos, todo pasó el filtro.
func Blend(lists [][]domain.Recommendation, max int, risk domain.RiskLevel) []domain.Recommendation {
	if max <= 0 {
		return nil
	}

	var pool []domain.Recommendation
	for _, list := range lists {
		pool = append(pool, FilterByRisk(list, risk)...)
	}

	seen := make(map[string]bool, max)
	result := make([]domain.Recommendation, 0, max)
	var leftovers []domain.Recommendation

	for _, r := range pool {
		if seen[r.MarketID] {
			continue
		}
		if len(result) < max {
			seen[r.MarketID] = true
			result = append(result, r)
		} else {
			leftovers = append(leftovers, r)
		}
	}

	// Con los huecos cubiertos no hay nada que rellenar.
	if len(result) >= max {
		return result
	}

	SortByConfidence(leftovers)
	for _, r := range leftovers {
		if len(result) >= max {
			break
		}
		if seen[r.MarketID] {
			continue
		}
		seen[r.MarketID] = true
		result = append(result, r)
	}
	return result
}
