package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-analytics/pkg/models"
)

func at(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func line(invoice string, customer int64, country, date string, sales float64) models.Transaction {
	return models.Transaction{
		InvoiceNo:       invoice,
		CustomerID:      customer,
		Country:         country,
		TransactionDate: at(date),
		TotalSales:      sales,
		IsReturn:        invoice[0] == 'C',
	}
}

func ledger() models.Transactions {
	return models.Transactions{
		line("I1", 1, "United Kingdom", "2010-12-01 08:26:00", 10),
		line("I1", 1, "United Kingdom", "2010-12-01 08:26:00", 15),
		line("I2", 2, "France", "2010-12-02 10:00:00", 8),
		line("C3", 1, "United Kingdom", "2010-12-05 12:00:00", -10),
		line("I4", 3, "United Kingdom", "2011-01-10 09:30:00", 100),
	}
}

func neutral() models.FilterParams {
	return models.FilterParams{Returns: models.ReturnsInclude}
}

func TestApply_DateRangeInclusive(t *testing.T) {
	p := neutral()
	p.Start = at("2010-12-01 08:26:00")
	p.End = at("2010-12-05 12:00:00")
	out := Apply(ledger(), p)
	require.Len(t, out, 4)
	for _, tx := range out {
		assert.NotEqual(t, "I4", tx.InvoiceNo)
	}
}

func TestApply_OpenBounds(t *testing.T) {
	assert.Len(t, Apply(ledger(), neutral()), 5)

	p := neutral()
	p.Start = at("2011-01-01 00:00:00")
	out := Apply(ledger(), p)
	require.Len(t, out, 1)
	assert.Equal(t, "I4", out[0].InvoiceNo)
}

func TestApply_Country(t *testing.T) {
	p := neutral()
	p.Country = "France"
	out := Apply(ledger(), p)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].CustomerID)

	p.Country = models.CountryGlobal
	assert.Len(t, Apply(ledger(), p), 5)
}

func TestApply_ReturnsModes(t *testing.T) {
	p := neutral()
	p.Returns = models.ReturnsExclude
	out := Apply(ledger(), p)
	assert.Len(t, out, 4)
	for _, tx := range out {
		assert.False(t, tx.IsReturn)
	}

	p.Returns = models.ReturnsNeutralize
	out = Apply(ledger(), p)
	require.Len(t, out, 5)
	assert.True(t, out[3].IsReturn)
	assert.Equal(t, 0.0, out[3].TotalSales)

	p.Returns = models.ReturnsInclude
	out = Apply(ledger(), p)
	assert.Equal(t, -10.0, out[3].TotalSales)
}

func TestApply_MinOrderUsesInvoiceTotal(t *testing.T) {
	p := neutral()
	p.Returns = models.ReturnsExclude
	p.MinOrderValue = 20
	out := Apply(ledger(), p)
	// I1 (10 + 15 = 25) est gardée en entier, I2 (8) est écartée
	require.Len(t, out, 3)
	assert.Equal(t, "I1", out[0].InvoiceNo)
	assert.Equal(t, "I1", out[1].InvoiceNo)
	assert.Equal(t, "I4", out[2].InvoiceNo)

	for _, tx := range out {
		assert.GreaterOrEqual(t, InvoiceTotals(out)[tx.InvoiceNo].InexactFloat64(), 20.0)
	}
}

func TestApply_MinOrderThresholdIsInclusive(t *testing.T) {
	p := neutral()
	p.MinOrderValue = 25
	out := Apply(ledger(), p)
	assert.Len(t, out, 3)
}

func TestApply_RowsComeFromInput(t *testing.T) {
	p := models.FilterParams{Returns: models.ReturnsExclude, Country: "United Kingdom", MinOrderValue: 1}
	out := Apply(ledger(), p)
	require.NotEmpty(t, out)
	for _, tx := range out {
		assert.Contains(t, ledger(), tx, "row %s not in input", tx.InvoiceNo)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	table := ledger()
	p := models.FilterParams{Returns: models.ReturnsNeutralize, Country: "United Kingdom", MinOrderValue: 1}
	Apply(table, p)
	assert.Equal(t, ledger(), table)
}

func TestApply_SubsetAndIdempotent(t *testing.T) {
	p := models.FilterParams{
		Start:         at("2010-12-01 00:00:00"),
		End:           at("2011-12-09 23:59:59"),
		Country:       "United Kingdom",
		Returns:       models.ReturnsExclude,
		MinOrderValue: 20,
	}
	once := Apply(ledger(), p)
	assert.LessOrEqual(t, len(once), len(ledger()))
	for _, tx := range once {
		assert.Contains(t, ledger(), tx, "row %s not in input", tx.InvoiceNo)
	}
	assert.Equal(t, once, Apply(once, p))
}

func TestApply_EmptySelectionShortCircuits(t *testing.T) {
	p := neutral()
	p.Country = "Germany"
	out := Apply(ledger(), p)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	assert.NotNil(t, Apply(nil, neutral()))
	assert.Empty(t, Apply(nil, neutral()))
}
