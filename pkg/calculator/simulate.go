package calculator

import (
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"marketing-analytics/pkg/models"
)

// RunScenarioSimulation applique la remise au Monetary (tous les clients ou le seul segment
// ciblé), puis calcule la CLV du Monetary moyen simulé et le chiffre d'affaires simulé.
// Une table RFM vide donne (0, 0).
func RunScenarioSimulation(rfm models.RFMTable, s models.ScenarioParams) (clv float64, revenue float64) {
	if len(rfm) == 0 {
		return 0, 0
	}
	for _, rec := range rfm {
		m := rec.Monetary
		if s.Mode != models.DiscountPerSegment || rec.Segment == s.TargetSegment {
			m *= 1 - s.DiscountPct
		}
		revenue += m
	}
	avg := revenue / float64(len(rfm))
	return CLVFormula(avg, s.Valuation), revenue
}

// Baseline est la simulation sans remise.
func Baseline(rfm models.RFMTable, p models.ValuationParams) (clv float64, revenue float64) {
	return RunScenarioSimulation(rfm, models.ScenarioParams{Valuation: p, Mode: models.DiscountGlobal})
}

// CompareScenario retourne la référence, la simulation et les écarts.
func CompareScenario(rfm models.RFMTable, s models.ScenarioParams) models.ScenarioComparison {
	baseCLV, baseRevenue := Baseline(rfm, s.Valuation)
	simCLV, simRevenue := RunScenarioSimulation(rfm, s)
	return models.ScenarioComparison{
		BaselineCLV:      baseCLV,
		BaselineRevenue:  baseRevenue,
		SimulatedCLV:     simCLV,
		SimulatedRevenue: simRevenue,
		DeltaCLV:         simCLV - baseCLV,
		DeltaRevenue:     simRevenue - baseRevenue,
	}
}

// SweepRetention rejoue le scénario pour chaque taux de rétention.
func SweepRetention(rfm models.RFMTable, s models.ScenarioParams, rates []float64, showProgress bool) []models.SweepPoint {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(rates)), "retention sweep")
	}
	points := make([]models.SweepPoint, 0, len(rates))
	for _, r := range rates {
		step := s
		step.Valuation.RetentionRate = r
		clv, revenue := RunScenarioSimulation(rfm, step)
		if clv == 0 && revenue > 0 {
			log.Debug().Float64("retention_rate", r).Msg("clv not computable for this rate")
		}
		points = append(points, models.SweepPoint{RetentionRate: r, CLV: clv, Revenue: revenue})
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return points
}

// RetentionRates génère from, from+step, ... jusqu'à to inclus.
func RetentionRates(from, to, step float64) []float64 {
	if step <= 0 || to < from {
		return []float64{}
	}
	var rates []float64
	for i := 0; ; i++ {
		r := from + float64(i)*step
		if r > to+step/1e6 {
			break
		}
		rates = append(rates, r)
	}
	return rates
}
