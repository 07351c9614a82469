package calculator

import "marketing-analytics/pkg/models"

// CLVEpsilon : en dessous, le dénominateur (attrition + actualisation) est considéré nul.
const CLVEpsilon = 0.0001

// CLVFormula = (valeur client × marge) / ((1 − rétention) + actualisation).
// Un dénominateur <= CLVEpsilon donne 0 : valeur non calculable, jamais +Inf.
func CLVFormula(monetary float64, p models.ValuationParams) float64 {
	denominator := (1 - p.RetentionRate) + p.DiscountRate
	if denominator <= CLVEpsilon {
		return 0
	}
	return monetary * p.Margin / denominator
}

// CLVFormulaSeries applique CLVFormula élément par élément.
func CLVFormulaSeries(monetary []float64, p models.ValuationParams) []float64 {
	out := make([]float64, len(monetary))
	for i, m := range monetary {
		out[i] = CLVFormula(m, p)
	}
	return out
}
