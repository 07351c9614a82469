// Package filter applique la sélection de l'utilisateur à la table normalisée.
package filter

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"marketing-analytics/pkg/models"
)

// Apply filtre dans cet ordre : dates (bornes incluses), pays, retours, seuil de commande.
// Le résultat est toujours une copie ; la table de l'appelant n'est jamais modifiée.
// Dès qu'une étape vide la sélection, une table vide est retournée.
func Apply(table models.Transactions, p models.FilterParams) models.Transactions {
	if len(table) == 0 {
		return models.Transactions{}
	}

	// 1. Filtre temporel
	out := table.Clone()
	if !p.Start.IsZero() || !p.End.IsZero() {
		out = keep(out, func(tx models.Transaction) bool {
			if !p.Start.IsZero() && tx.TransactionDate.Before(p.Start) {
				return false
			}
			return p.End.IsZero() || !tx.TransactionDate.After(p.End)
		})
	}
	if len(out) == 0 {
		return out
	}

	// 2. Filtre pays
	if p.Country != "" && p.Country != models.CountryGlobal {
		out = keep(out, func(tx models.Transaction) bool { return tx.Country == p.Country })
		if len(out) == 0 {
			return out
		}
	}

	// 3. Mode retours
	switch p.Returns {
	case models.ReturnsExclude:
		out = keep(out, func(tx models.Transaction) bool { return !tx.IsReturn })
	case models.ReturnsNeutralize:
		for i := range out {
			if out[i].IsReturn {
				out[i].TotalSales = 0
			}
		}
	}
	if len(out) == 0 {
		return out
	}

	// 4. Seuil de commande, calculé sur le total de la facture
	if p.MinOrderValue > 0 {
		totals := InvoiceTotals(out)
		threshold := decimal.NewFromFloat(p.MinOrderValue)
		out = keep(out, func(tx models.Transaction) bool {
			return totals[tx.InvoiceNo].GreaterThanOrEqual(threshold)
		})
	}

	log.Debug().Int("in", len(table)).Int("out", len(out)).Str("country", p.Country).
		Str("returns", string(p.Returns)).Float64("min_order", p.MinOrderValue).Msg("filters applied")
	return out
}

// InvoiceTotals somme TotalSales par facture, en décimal pour que la comparaison au seuil
// ne dépende pas de l'ordre d'addition.
func InvoiceTotals(txs models.Transactions) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		totals[tx.InvoiceNo] = totals[tx.InvoiceNo].Add(decimal.NewFromFloat(tx.TotalSales))
	}
	return totals
}

func keep(txs models.Transactions, pred func(models.Transaction) bool) models.Transactions {
	out := make(models.Transactions, 0, len(txs))
	for _, tx := range txs {
		if pred(tx) {
			out = append(out, tx)
		}
	}
	return out
}
