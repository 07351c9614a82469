package calculator

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"marketing-analytics/pkg/filter"
	"marketing-analytics/pkg/models"
)

// Run enchaîne filtres → RFM → cohortes → simulation sur la table normalisée.
// Seuls des paramètres invalides produisent une erreur ; une sélection vide donne un
// rapport vide.
func Run(table models.Transactions, cfg models.Config) (models.Report, error) {
	if err := cfg.Filters.Validate(); err != nil {
		return models.Report{}, eris.Wrap(err, "filters")
	}
	if err := cfg.Scenario.Validate(); err != nil {
		return models.Report{}, eris.Wrap(err, "scenario")
	}

	filtered := filter.Apply(table, cfg.Filters)
	analysis := cfg.AnalysisDate
	if analysis.IsZero() {
		analysis = DefaultAnalysisDate(cfg.Filters, filtered)
	} else if last := latestTransaction(filtered); last.After(analysis) {
		// la récence doit rester positive ou nulle
		return models.Report{}, eris.Errorf("analysis date %s is before the latest selected transaction (%s)",
			analysis.Format(time.DateOnly), last.Format(time.DateTime))
	}

	rfm, diag := CalculateRFM(filtered, analysis)
	report := models.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		AnalysisDate: analysis,
		Filters:      cfg.Filters,
		Scenario:     cfg.Scenario,
		Transactions: len(filtered),
		Countries:    Countries(table),
		Overview:     ComputeOverview(filtered, rfm),
		Segments:     SummarizeSegments(rfm),
		Trend:        MonthlyRevenueTrend(filtered),
		Cohorts:      CalculateCohortRetention(filtered),
		Comparison:   CompareScenario(rfm, cfg.Scenario),
		Diagnostics:  diag,
		RFM:          rfm,
		Filtered:     filtered,
	}

	if cfg.Verbose {
		log.Info().Str("run_id", report.RunID).Int("transactions", len(filtered)).
			Int("customers", len(rfm)).Int("cohorts", len(report.Cohorts.Sizes)).
			Float64("clv_baseline", report.Comparison.BaselineCLV).
			Float64("clv_simulated", report.Comparison.SimulatedCLV).Msg("analysis complete")
	}
	return report, nil
}

// DefaultAnalysisDate = lendemain (minuit) de la fin du filtre, ou de la dernière transaction.
func DefaultAnalysisDate(p models.FilterParams, filtered models.Transactions) time.Time {
	end := p.End
	if end.IsZero() {
		end = latestTransaction(filtered)
	}
	if end.IsZero() {
		return time.Time{}
	}
	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	return day.AddDate(0, 0, 1)
}

func latestTransaction(txs models.Transactions) time.Time {
	var last time.Time
	for _, tx := range txs {
		if tx.TransactionDate.After(last) {
			last = tx.TransactionDate
		}
	}
	return last
}
