package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"marketing-analytics/pkg/models"
)

type cohortKey struct {
	cohort time.Time
	index  int
}

type cohortCell struct {
	customers map[int64]struct{}
	revenue   decimal.Decimal
}

// CalculateCohortRetention rattache chaque client au mois de sa première transaction
// filtrée, puis construit :
//   - la matrice de rétention : clients distincts actifs / clients à l'index 0, × 100 ;
//   - la matrice ARPU : chiffre d'affaires / clients à l'index 0 (membres d'origine,
//     pas membres actifs, pour refléter l'attrition) ;
//   - la taille de chaque cohorte.
//
// Une table vide donne trois résultats vides.
func CalculateCohortRetention(txs models.Transactions) models.CohortResult {
	if len(txs) == 0 {
		return models.CohortResult{}
	}

	first := make(map[int64]time.Time)
	for _, tx := range txs {
		m := monthStart(tx.TransactionDate)
		if cur, ok := first[tx.CustomerID]; !ok || m.Before(cur) {
			first[tx.CustomerID] = m
		}
	}

	cells := make(map[cohortKey]*cohortCell)
	cohortSet := make(map[time.Time]struct{})
	indexSet := make(map[int]struct{})
	for _, tx := range txs {
		cm := first[tx.CustomerID]
		k := cohortKey{cohort: cm, index: cohortIndex(monthStart(tx.TransactionDate), cm)}
		c, ok := cells[k]
		if !ok {
			c = &cohortCell{customers: make(map[int64]struct{})}
			cells[k] = c
		}
		c.customers[tx.CustomerID] = struct{}{}
		c.revenue = c.revenue.Add(decimal.NewFromFloat(tx.TotalSales))
		cohortSet[cm] = struct{}{}
		indexSet[k.index] = struct{}{}
	}
	if len(cells) == 0 {
		return models.CohortResult{}
	}

	cohorts := make([]time.Time, 0, len(cohortSet))
	for c := range cohortSet {
		cohorts = append(cohorts, c)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Before(cohorts[j]) })
	indices := make([]int, 0, len(indexSet))
	for i := range indexSet {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	labels := make([]string, len(cohorts))
	for i, c := range cohorts {
		labels[i] = formatMonth(c)
	}
	result := models.CohortResult{
		Retention: newMatrix(labels, indices),
		ARPU:      newMatrix(labels, indices),
		Sizes:     make([]models.CohortSize, len(cohorts)),
	}

	for i, cm := range cohorts {
		// L'index 0 existe toujours : c'est le mois qui définit la cohorte.
		size := float64(len(cells[cohortKey{cohort: cm, index: 0}].customers))
		result.Sizes[i] = models.CohortSize{Cohort: labels[i], Customers: int(size)}
		for j, idx := range indices {
			c, ok := cells[cohortKey{cohort: cm, index: idx}]
			if !ok {
				continue
			}
			result.Retention.Values[i][j] = float64(len(c.customers)) / size * 100
			result.ARPU.Values[i][j] = c.revenue.InexactFloat64() / size
		}
	}

	log.Debug().Int("cohorts", len(cohorts)).Int("max_index", indices[len(indices)-1]).Msg("cohort matrices built")
	return result
}

func newMatrix(cohorts []string, indices []int) models.CohortMatrix {
	values := make([][]float64, len(cohorts))
	for i := range values {
		values[i] = make([]float64, len(indices))
		for j := range values[i] {
			values[i][j] = math.NaN()
		}
	}
	return models.CohortMatrix{
		Cohorts: append([]string(nil), cohorts...),
		Indices: append([]int(nil), indices...),
		Values:  values,
	}
}

// RetentionCurve retourne la ligne d'une cohorte (index → valeur), sans les cellules absentes.
func RetentionCurve(m models.CohortMatrix, cohort string) map[int]float64 {
	curve := make(map[int]float64)
	for _, idx := range m.Indices {
		if v, ok := m.Value(cohort, idx); ok {
			curve[idx] = v
		}
	}
	return curve
}
