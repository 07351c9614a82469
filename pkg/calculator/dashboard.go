package calculator

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"marketing-analytics/pkg/models"
)

// ComputeOverview calcule les KPI de la vue d'ensemble.
func ComputeOverview(filtered models.Transactions, rfm models.RFMTable) models.Overview {
	invoices := make(map[string]struct{})
	for _, tx := range filtered {
		invoices[tx.InvoiceNo] = struct{}{}
	}
	ov := models.Overview{ActiveCustomers: len(rfm), Invoices: len(invoices)}
	for _, rec := range rfm {
		ov.TotalRevenue += rec.Monetary
	}
	if ov.Invoices > 0 {
		ov.AverageBasket = ov.TotalRevenue / float64(ov.Invoices)
	}
	if ov.ActiveCustomers > 0 {
		ov.EmpiricalCLV = ov.TotalRevenue / float64(ov.ActiveCustomers)
	}
	return ov
}

// SummarizeSegments agrège la table RFM par segment, trié par chiffre d'affaires décroissant.
func SummarizeSegments(rfm models.RFMTable) []models.SegmentStats {
	bySegment := make(map[models.Segment]*models.SegmentStats)
	recency := make(map[models.Segment]int)
	for _, rec := range rfm {
		st, ok := bySegment[rec.Segment]
		if !ok {
			st = &models.SegmentStats{Segment: rec.Segment}
			bySegment[rec.Segment] = st
		}
		st.Customers++
		st.TotalMonetary += rec.Monetary
		recency[rec.Segment] += rec.Recency
	}

	out := make([]models.SegmentStats, 0, len(bySegment))
	for seg, st := range bySegment {
		st.MeanMonetary = st.TotalMonetary / float64(st.Customers)
		st.MeanRecency = float64(recency[seg]) / float64(st.Customers)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMonetary != out[j].TotalMonetary {
			return out[i].TotalMonetary > out[j].TotalMonetary
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// MonthlyRevenueTrend somme TotalSales par mois calendaire ; les mois sans vente valent 0.
func MonthlyRevenueTrend(filtered models.Transactions) []models.MonthlyRevenue {
	if len(filtered) == 0 {
		return []models.MonthlyRevenue{}
	}
	sums := make(map[string]decimal.Decimal)
	first, last := filtered[0].TransactionDate, filtered[0].TransactionDate
	for _, tx := range filtered {
		label := formatMonth(tx.TransactionDate)
		sums[label] = sums[label].Add(decimal.NewFromFloat(tx.TotalSales))
		if tx.TransactionDate.Before(first) {
			first = tx.TransactionDate
		}
		if tx.TransactionDate.After(last) {
			last = tx.TransactionDate
		}
	}

	months := monthsBetweenInclusive(first, last)
	out := make([]models.MonthlyRevenue, 0, len(months))
	for _, m := range months {
		label := formatMonth(m)
		out = append(out, models.MonthlyRevenue{Month: label, Revenue: sums[label].InexactFloat64()})
	}
	return out
}

// Countries retourne "Global" suivi des pays présents, triés.
func Countries(table models.Transactions) []string {
	seen := make(map[string]struct{})
	for _, tx := range table {
		if tx.Country != "" {
			seen[tx.Country] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return append([]string{models.CountryGlobal}, out...)
}

// CheckCountry refuse un pays absent de la table ; "" et "Global" sont toujours acceptés.
func CheckCountry(table models.Transactions, country string) error {
	if country == "" || country == models.CountryGlobal {
		return nil
	}
	valid := Countries(table)
	for _, c := range valid {
		if c == country {
			return nil
		}
	}
	return eris.Errorf("unknown country %q, expected one of: %s", country, strings.Join(valid, ", "))
}
