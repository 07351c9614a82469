package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"marketing-analytics/pkg/models"
)

// Normalize renomme les champs bruts vers le schéma canonique, convertit CustomerID
// en entier et dérive IsReturn. Les lignes dont l'identifiant client n'est pas
// convertible sont ignorées silencieusement ; le nombre de lignes écartées est retourné.
func Normalize(raws []models.RawTransaction) (models.Transactions, int) {
	out := make(models.Transactions, 0, len(raws))
	dropped := 0
	for _, r := range raws {
		id, ok := coerceCustomerID(r.CustomerID)
		if !ok {
			dropped++
			continue
		}
		out = append(out, models.Transaction{
			InvoiceNo:       r.Invoice,
			StockCode:       r.StockCode,
			Description:     r.Description,
			Quantity:        r.Quantity,
			TransactionDate: r.InvoiceDate,
			UnitPrice:       r.Price,
			CustomerID:      id,
			Country:         r.Country,
			TotalSales:      r.TotalAmount,
			IsReturn:        strings.HasPrefix(r.Invoice, models.ReturnPrefix),
		})
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("kept", len(out)).Msg("rows without numeric customer id dropped")
	}
	return out, dropped
}

// coerceCustomerID accepte "12346" comme "12346.0" ; tout le reste est rejeté.
func coerceCustomerID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
