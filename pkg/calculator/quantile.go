package calculator

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// errDegenerateBins : pas assez de valeurs distinctes pour former des quantiles uniques.
var errDegenerateBins = eris.New("quantile bin edges are not unique")

// quantileBins découpe values en q classes de même effectif et retourne l'indice de classe
// (0 = valeurs les plus basses) de chaque valeur. Les bornes suivent une interpolation
// linéaire ; une valeur égale à une borne tombe dans la classe inférieure, la première
// classe inclut le minimum.
func quantileBins(values []float64, q int) ([]int, error) {
	if len(values) == 0 {
		return []int{}, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, q+1)
	for i := range edges {
		edges[i] = quantile(sorted, float64(i)/float64(q))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, eris.Wrapf(errDegenerateBins, "edges %v", edges)
		}
	}

	bins := make([]int, len(values))
	for i, v := range values {
		b := sort.SearchFloat64s(edges, v) - 1
		if b < 0 {
			b = 0
		}
		if b > q-1 {
			b = q - 1
		}
		bins[i] = b
	}
	return bins, nil
}

// quantile sur un échantillon trié, interpolation linéaire entre rangs.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// rankFirst attribue les rangs 1..n ; à valeur égale, l'ordre d'apparition départage.
func rankFirst(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	ranks := make([]float64, len(values))
	for r, i := range idx {
		ranks[i] = float64(r + 1)
	}
	return ranks
}
