package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-analytics/pkg/models"
)

func TestNormalize_CoercesAndDerives(t *testing.T) {
	date := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	raws := []models.RawTransaction{
		{Invoice: "536365", CustomerID: "17850", InvoiceDate: date, TotalAmount: 15.3, Price: 2.55, Quantity: 6, Country: "United Kingdom"},
		{Invoice: "C536379", CustomerID: "14527.0", InvoiceDate: date, TotalAmount: -27.5, Country: "United Kingdom"},
		{Invoice: "536380", CustomerID: "", InvoiceDate: date, TotalAmount: 3},
		{Invoice: "536381", CustomerID: "abc", InvoiceDate: date, TotalAmount: 3},
		{Invoice: "536382", CustomerID: "12.5", InvoiceDate: date, TotalAmount: 3},
	}
	txs, dropped := Normalize(raws)
	require.Len(t, txs, 2)
	assert.Equal(t, 3, dropped)

	assert.Equal(t, int64(17850), txs[0].CustomerID)
	assert.Equal(t, "536365", txs[0].InvoiceNo)
	assert.Equal(t, date, txs[0].TransactionDate)
	assert.Equal(t, 15.3, txs[0].TotalSales)
	assert.Equal(t, 2.55, txs[0].UnitPrice)
	assert.False(t, txs[0].IsReturn)

	assert.Equal(t, int64(14527), txs[1].CustomerID)
	assert.True(t, txs[1].IsReturn)
}

func TestNormalize_AllInvalidGivesEmptyTable(t *testing.T) {
	txs, dropped := Normalize([]models.RawTransaction{{CustomerID: "x"}, {CustomerID: " "}})
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
	assert.Equal(t, 2, dropped)
}

func TestCoerceCustomerID(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12346", 12346, true},
		{" 12346 ", 12346, true},
		{"12346.0", 12346, true},
		{"1.2346e4", 12346, true},
		{"12346.5", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := coerceCustomerID(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}
