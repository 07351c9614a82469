package calculator

import (
	"fmt"
	"time"

	"marketing-analytics/pkg/models"
)

var analysisDay = time.Date(2011, 12, 10, 0, 0, 0, 0, time.UTC)

func tx(customer int64, invoice string, date time.Time, sales float64) models.Transaction {
	return models.Transaction{
		InvoiceNo:       invoice,
		CustomerID:      customer,
		TransactionDate: date,
		Country:         "United Kingdom",
		TotalSales:      sales,
		IsReturn:        len(invoice) > 0 && invoice[0] == 'C',
	}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// customerHistory crée `invoices` factures d'un même montant, toutes datées de
// `recency` jours avant analysisDay.
func customerHistory(customer int64, recency, invoices int, monetary float64) models.Transactions {
	var out models.Transactions
	date := analysisDay.AddDate(0, 0, -recency)
	for i := 0; i < invoices; i++ {
		out = append(out, tx(customer, fmt.Sprintf("%d-%d", customer, i), date, monetary/float64(invoices)))
	}
	return out
}
