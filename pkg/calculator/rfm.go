package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"marketing-analytics/pkg/models"
)

// NeutralScore est attribué à tous les clients quand les quintiles ne peuvent pas être formés.
const NeutralScore = 3

const rfmBins = 5

type customerAgg struct {
	last     time.Time
	invoices map[string]struct{}
	monetary decimal.Decimal
}

// CalculateRFM agrège les transactions filtrées par client, exclut les clients dont le
// Monetary est <= 0, attribue les scores par quintiles puis le segment CRM.
// Le résultat est trié par CustomerID. Une table vide donne un résultat vide.
func CalculateRFM(txs models.Transactions, analysisDate time.Time) (models.RFMTable, models.RFMDiagnostics) {
	var diag models.RFMDiagnostics
	if len(txs) == 0 {
		return models.RFMTable{}, diag
	}

	aggs := make(map[int64]*customerAgg)
	for _, tx := range txs {
		a, ok := aggs[tx.CustomerID]
		if !ok {
			a = &customerAgg{last: tx.TransactionDate, invoices: make(map[string]struct{})}
			aggs[tx.CustomerID] = a
		}
		if tx.TransactionDate.After(a.last) {
			a.last = tx.TransactionDate
		}
		a.invoices[tx.InvoiceNo] = struct{}{}
		a.monetary = a.monetary.Add(decimal.NewFromFloat(tx.TotalSales))
	}

	ids := make([]int64, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	table := make(models.RFMTable, 0, len(ids))
	for _, id := range ids {
		a := aggs[id]
		if a.monetary.Sign() <= 0 {
			diag.ExcludedNonPositive++
			continue
		}
		table = append(table, models.RFMRecord{
			CustomerID: id,
			Recency:    daysBetween(a.last, analysisDate),
			Frequency:  len(a.invoices),
			Monetary:   a.monetary.InexactFloat64(),
		})
	}
	diag.Customers = len(table)
	if len(table) == 0 {
		return table, diag
	}

	if err := scoreRFM(table); err != nil {
		diag.ScoringFallback = true
		diag.FallbackReason = err.Error()
		log.Warn().Err(err).Int("customers", len(table)).Msg("rfm quintiles degenerate, using neutral scores")
		for i := range table {
			table[i].RScore, table[i].FScore, table[i].MScore = NeutralScore, NeutralScore, NeutralScore
		}
	}

	for i := range table {
		rec := &table[i]
		rec.RFMScore = fmt.Sprintf("%d%d%d", rec.RScore, rec.FScore, rec.MScore)
		rec.Segment, rec.Priority = SegmentFor(rec.RScore, rec.FScore, rec.MScore)
	}
	return table, diag
}

// scoreRFM remplit les trois scores, ou aucun : une erreur laisse la table inchangée.
func scoreRFM(table models.RFMTable) error {
	recency := make([]float64, len(table))
	frequency := make([]float64, len(table))
	monetary := make([]float64, len(table))
	for i, rec := range table {
		recency[i] = float64(rec.Recency)
		frequency[i] = float64(rec.Frequency)
		monetary[i] = rec.Monetary
	}

	rBins, err := quantileBins(recency, rfmBins)
	if err != nil {
		return err
	}
	fBins, err := quantileBins(rankFirst(frequency), rfmBins)
	if err != nil {
		return err
	}
	mBins, err := quantileBins(rankFirst(monetary), rfmBins)
	if err != nil {
		return err
	}

	for i := range table {
		// Récence : moins de jours = meilleur score.
		table[i].RScore = rfmBins - rBins[i]
		table[i].FScore = fBins[i] + 1
		table[i].MScore = mBins[i] + 1
	}
	return nil
}

// daysBetween retourne le nombre de jours entiers de from à to, arrondi vers le bas.
func daysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := d / (24 * time.Hour)
	if d%(24*time.Hour) < 0 {
		days--
	}
	return int(days)
}
