package strategy

import (
	"fmt"
	"math/rand"

	"github.com/dmorell/kalshibot/internal/domain"
)

// Phrases elige las frases de color de los rationales. El generador se
// inyecta con seed para que los tests puedan fijar el texto; la elección
// nunca afecta a los campos estructurales de la recomendación.
type Phrases struct {
	rnd *rand.Rand
}

// NewPhrases crea un selector de frases con la seed dada.
func NewPhrases(seed int64) *Phrases {
	return &Phrases{rnd: rand.New(rand.NewSource(seed))}
}

func (p *Phrases) pick(opts []string) string {
	return opts[p.rnd.Intn(len(opts))]
}

var momentumConfidencePhrases = map[domain.Confidence][]string{
	domain.ConfidenceHigh: {
		"Technical indicators strongly support this position.",
		"Multiple signals align to suggest high probability of success.",
		"Price pattern shows exceptional clarity for this trade.",
		"Historical analysis indicates high likelihood of continued momentum.",
	},
	domain.ConfidenceMedium: {
		"Technical indicators moderately support this position.",
		"Several signals suggest favorable odds for this trade.",
		"Price pattern shows reasonable clarity for this direction.",
		"Historical analysis indicates moderate likelihood of continued momentum.",
	},
	domain.ConfidenceLow: {
		"Some technical indicators support this position, but with caveats.",
		"A few signals suggest potential for this trade, though uncertainty remains.",
		"Price pattern shows some evidence for this direction, but clarity is limited.",
		"Historical analysis indicates possible continued momentum, though risks exist.",
	},
}

var reversionConfidencePhrases = map[domain.Confidence][]string{
	domain.ConfidenceHigh: {
		"Statistical indicators strongly support reversion to the mean.",
		"Historical analysis shows high probability of price correction from these levels.",
		"Multiple technical signals indicate imminent reversion.",
		"Price extremes of this magnitude have consistently reverted in similar markets.",
	},
	domain.ConfidenceMedium: {
		"Statistical indicators moderately support reversion to the mean.",
		"Historical analysis suggests reasonable probability of price correction.",
		"Several technical signals point to potential reversion.",
		"Price extremes similar to this have often reverted in comparable markets.",
	},
	domain.ConfidenceLow: {
		"Some statistical indicators suggest possible reversion to the mean.",
		"Historical analysis shows mixed results for price correction from these levels.",
		"A few technical signals hint at potential reversion, though uncertainty remains.",
		"Price extremes like this have occasionally reverted in similar markets, but not consistently.",
	},
}

// momentumRationale combina frase de trend + frase de volumen + frase de confianza.
func (p *Phrases) momentumRationale(m domain.Market, action domain.Action, conf domain.Confidence) string {
	title := m.Title
	if title == "" {
		title = "this market"
	}
	volume := float64(m.Volume24h) / 100.0

	trend := p.pick([]string{
		fmt.Sprintf("Strong momentum detected for %s position in %s.", action, title),
		fmt.Sprintf("Market sentiment is clearly favoring %s outcome in %s.", action, title),
		fmt.Sprintf("Trend analysis indicates continued movement toward %s in %s.", action, title),
		fmt.Sprintf("Price action shows significant momentum for %s in %s.", action, title),
	})
	vol := p.pick([]string{
		fmt.Sprintf("Trading volume of $%.2f supports this directional move.", volume),
		fmt.Sprintf("High trading activity ($%.2f) confirms market conviction.", volume),
		fmt.Sprintf("Volume analysis shows strong participation at $%.2f, validating the trend.", volume),
		fmt.Sprintf("Market liquidity of $%.2f provides confidence in this direction.", volume),
	})
	return trend + " " + vol + " " + p.pick(momentumConfidencePhrases[conf])
}

// reversionRationale combina frase de reversión + frase de extremo + frase de confianza.
func (p *Phrases) reversionRationale(m domain.Market, action domain.Action, conf domain.Confidence) string {
	title := m.Title
	if title == "" {
		title = "this market"
	}
	yesPrice := float64(m.YesAsk) / 100.0

	reversion := p.pick([]string{
		fmt.Sprintf("Mean-reversion opportunity detected for %s position in %s.", action, title),
		fmt.Sprintf("Current price appears extreme and likely to revert in %s.", title),
		fmt.Sprintf("Statistical analysis suggests price correction toward %s in %s.", action, title),
		fmt.Sprintf("Overextended price levels indicate potential reversal in %s.", title),
	})

	var extreme string
	if action == domain.ActionYes {
		extreme = p.pick([]string{
			fmt.Sprintf("Current YES price of %.2f appears undervalued based on historical patterns.", yesPrice),
			fmt.Sprintf("YES price at %.2f shows significant deviation below historical average.", yesPrice),
			fmt.Sprintf("Market appears to have overreacted to the downside at %.2f.", yesPrice),
			fmt.Sprintf("Price of %.2f represents an unusually pessimistic outlook that may correct.", yesPrice),
		})
	} else {
		extreme = p.pick([]string{
			fmt.Sprintf("Current YES price of %.2f appears overvalued based on historical patterns.", yesPrice),
			fmt.Sprintf("YES price at %.2f shows significant deviation above historical average.", yesPrice),
			fmt.Sprintf("Market appears to have overreacted to the upside at %.2f.", yesPrice),
			fmt.Sprintf("Price of %.2f represents an unusually optimistic outlook that may correct.", yesPrice),
		})
	}
	return reversion + " " + extreme + " " + p.pick(reversionConfidencePhrases[conf])
}
