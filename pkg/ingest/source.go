package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"marketing-analytics/pkg/models"
)

// Noms de colonnes attendus dans la source.
const (
	ColCustomerID  = "Customer ID"
	ColInvoiceDate = "InvoiceDate"
	ColTotalAmount = "TotalAmount"
	ColInvoice     = "Invoice"
	ColPrice       = "Price"
	ColCountry     = "Country"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
)

// RequiredColumns sont obligatoires : aucune tentative de deviner un schéma différent.
var RequiredColumns = []string{ColCustomerID, ColInvoiceDate, ColTotalAmount, ColInvoice, ColPrice, ColCountry}

// dateLayouts sont essayés dans l'ordre sur la première date textuelle du fichier ;
// le format retenu s'applique ensuite à toutes les lignes.
var dateLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	time.DateOnly,
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"02/01/2006 15:04",
}

// LoadFile charge un fichier CSV ou XLSX. Les chemins de repli sont essayés dans l'ordre
// si path n'existe pas. Un fichier valide mais sans ligne exploitable donne une table vide.
func LoadFile(path string, fallbacks ...string) (models.Transactions, error) {
	resolved, err := resolvePath(append([]string{path}, fallbacks...))
	if err != nil {
		return nil, Unavailable(path, err)
	}

	var raws []models.RawTransaction
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".xlsx", ".xlsm":
		raws, err = readXLSX(resolved)
	default:
		raws, err = readCSVFile(resolved)
	}
	if err != nil {
		return nil, Unavailable(resolved, err)
	}

	txs, dropped := Normalize(raws)
	log.Info().Str("source", resolved).Int("rows", len(raws)).Int("dropped", dropped).
		Int("transactions", len(txs)).Msg("transactions loaded")
	return txs, nil
}

func resolvePath(candidates []string) (string, error) {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", eris.Errorf("no readable file among %s", strings.Join(candidates, ", "))
}

func readCSVFile(path string) ([]models.RawTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV lit une table délimitée par des virgules avec ligne d'en-tête.
func ReadCSV(r io.Reader) ([]models.RawTransaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}
	return parseRecords(records, false)
}

func readXLSX(path string) ([]models.RawTransaction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, eris.New("workbook has no sheet")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(err, "read sheet %s", sheets[0])
	}
	return parseRecords(rows, true)
}

func parseRecords(records [][]string, excelSerialDates bool) ([]models.RawTransaction, error) {
	if len(records) == 0 {
		return nil, eris.New("missing header row")
	}
	colMap := headerIndex(records[0])
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := colMap[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	cell := func(rec []string, name string) string {
		i, ok := colMap[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := make([]models.RawTransaction, 0, len(records)-1)
	dates := &dateParser{excelSerial: excelSerialDates}
	skipped := 0
	for n, rec := range records[1:] {
		line := n + 2
		if isBlank(rec) {
			continue
		}
		rawDate := cell(rec, ColInvoiceDate)
		if rawDate == "" {
			skipped++
			continue
		}
		date, err := dates.parse(rawDate)
		if err != nil {
			return nil, eris.Wrapf(err, "row %d", line)
		}
		total, err := parseNumber(cell(rec, ColTotalAmount))
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: %s", line, ColTotalAmount)
		}
		price, err := parseNumber(cell(rec, ColPrice))
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: %s", line, ColPrice)
		}
		qty, err := parseNumber(cell(rec, ColQuantity))
		if err != nil {
			return nil, eris.Wrapf(err, "row %d: %s", line, ColQuantity)
		}
		out = append(out, models.RawTransaction{
			Invoice:     cell(rec, ColInvoice),
			StockCode:   cell(rec, ColStockCode),
			Description: cell(rec, ColDescription),
			Quantity:    int(qty),
			InvoiceDate: date,
			Price:       price,
			CustomerID:  cell(rec, ColCustomerID),
			Country:     cell(rec, ColCountry),
			TotalAmount: total,
		})
	}
	if skipped > 0 {
		log.Warn().Int("rows", skipped).Msg("rows without invoice date skipped")
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := colMap[h]; !dup {
			colMap[h] = i
		}
	}
	return colMap
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber traite une cellule vide comme zéro.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("invalid number %q", s)
	}
	return v, nil
}

// dateParser fige le format de date d'un fichier : deux lignes ne peuvent pas être lues
// l'une en jour/mois, l'autre en mois/jour.
type dateParser struct {
	excelSerial bool
	layout      string
}

func (p *dateParser) parse(s string) (time.Time, error) {
	if p.excelSerial {
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return time.Time{}, eris.Wrapf(err, "invalid excel date %q", s)
			}
			return t.Round(time.Second), nil
		}
	}
	if p.layout != "" {
		t, err := time.Parse(p.layout, s)
		if err != nil {
			return time.Time{}, eris.Errorf("invalid date %q: expected layout %q", s, p.layout)
		}
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			p.layout = layout
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("invalid date %q", s)
}
