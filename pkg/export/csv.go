// Package export écrit les tables calculées au format texte délimité (UTF-8, en-tête,
// virgules) et le rapport complet en JSON.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"marketing-analytics/pkg/models"
)

// RFMHeader reprend l'ordre des colonnes de segments_rfm.csv.
var RFMHeader = []string{
	"CustomerID", "Recency", "Frequency", "Monetary",
	"R_Score", "F_Score", "M_Score", "RFM_Score", "Segment_RFM", "Priorité_CRM",
}

// TransactionHeader est l'en-tête de l'export des transactions filtrées.
var TransactionHeader = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity", "TransactionDate",
	"UnitPrice", "CustomerID", "Country", "TotalSales", "is_return",
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func WriteRFMCSV(w io.Writer, table models.RFMTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RFMHeader); err != nil {
		return eris.Wrap(err, "write rfm header")
	}
	for _, r := range table {
		rec := []string{
			strconv.FormatInt(r.CustomerID, 10),
			strconv.Itoa(r.Recency),
			strconv.Itoa(r.Frequency),
			formatFloat(r.Monetary),
			strconv.Itoa(r.RScore),
			strconv.Itoa(r.FScore),
			strconv.Itoa(r.MScore),
			r.RFMScore,
			string(r.Segment),
			r.Priority.String(),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "write rfm row %d", r.CustomerID)
		}
	}
	return flush(cw, "rfm csv")
}

// ReadRFMCSV relit un export produit par WriteRFMCSV. RFM_Score reste une chaîne.
func ReadRFMCSV(r io.Reader) (models.RFMTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read rfm csv")
	}
	if len(records) == 0 {
		return nil, eris.New("rfm csv: missing header")
	}
	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[h] = i
	}
	for _, h := range RFMHeader {
		if _, ok := idx[h]; !ok {
			return nil, eris.Errorf("rfm csv: missing column %s", h)
		}
	}

	table := make(models.RFMTable, 0, len(records)-1)
	for n, rec := range records[1:] {
		p := rowParser{rec: rec, idx: idx}
		row := models.RFMRecord{
			CustomerID: p.asInt64("CustomerID"),
			Recency:    p.asInt("Recency"),
			Frequency:  p.asInt("Frequency"),
			Monetary:   p.asFloat("Monetary"),
			RScore:     p.asInt("R_Score"),
			FScore:     p.asInt("F_Score"),
			MScore:     p.asInt("M_Score"),
			RFMScore:   p.str("RFM_Score"),
			Segment:    models.Segment(p.str("Segment_RFM")),
		}
		if s := p.str("Priorité_CRM"); s != "" {
			row.Priority = models.Priority(p.asInt("Priorité_CRM"))
		}
		if p.err != nil {
			return nil, eris.Wrapf(p.err, "rfm csv row %d", n+2)
		}
		table = append(table, row)
	}
	return table, nil
}

type rowParser struct {
	rec []string
	idx map[string]int
	err error
}

func (p *rowParser) str(col string) string {
	i := p.idx[col]
	if i >= len(p.rec) {
		return ""
	}
	return p.rec[i]
}

func (p *rowParser) asInt64(col string) int64 {
	v, err := strconv.ParseInt(p.str(col), 10, 64)
	if err != nil && p.err == nil {
		p.err = eris.Wrapf(err, "column %s", col)
	}
	return v
}

func (p *rowParser) asInt(col string) int { return int(p.asInt64(col)) }

func (p *rowParser) asFloat(col string) float64 {
	v, err := strconv.ParseFloat(p.str(col), 64)
	if err != nil && p.err == nil {
		p.err = eris.Wrapf(err, "column %s", col)
	}
	return v
}

func flush(cw *csv.Writer, what string) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "flush %s", what)
	}
	return nil
}

func WriteTransactionsCSV(w io.Writer, txs models.Transactions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionHeader); err != nil {
		return eris.Wrap(err, "write transactions header")
	}
	for _, tx := range txs {
		rec := []string{
			tx.InvoiceNo,
			tx.StockCode,
			tx.Description,
			strconv.Itoa(tx.Quantity),
			tx.TransactionDate.Format(time.DateTime),
			formatFloat(tx.UnitPrice),
			strconv.FormatInt(tx.CustomerID, 10),
			tx.Country,
			formatFloat(tx.TotalSales),
			strconv.FormatBool(tx.IsReturn),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "write transaction %s", tx.InvoiceNo)
		}
	}
	return flush(cw, "transactions csv")
}

// WriteMatrixCSV écrit une matrice de cohortes ; une cellule absente est laissée vide.
func WriteMatrixCSV(w io.Writer, m models.CohortMatrix) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(m.Indices)+1)
	header = append(header, "CohortMonth")
	for _, idx := range m.Indices {
		header = append(header, strconv.Itoa(idx))
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "write matrix header")
	}
	for i, cohort := range m.Cohorts {
		rec := make([]string, 0, len(header))
		rec = append(rec, cohort)
		for _, v := range m.Values[i] {
			if math.IsNaN(v) {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "write matrix row %s", cohort)
		}
	}
	return flush(cw, "matrix csv")
}

func WriteCohortSizesCSV(w io.Writer, sizes []models.CohortSize) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"CohortMonth", "Customers"}); err != nil {
		return eris.Wrap(err, "write sizes header")
	}
	for _, s := range sizes {
		if err := cw.Write([]string{s.Cohort, strconv.Itoa(s.Customers)}); err != nil {
			return eris.Wrap(err, "write sizes row")
		}
	}
	return flush(cw, "sizes csv")
}
