package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"marketing-analytics/pkg/ingest"
	"marketing-analytics/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect identifie le driver database/sql utilisé.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "pgx"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb://, mysql:// ou postgres:// → driver adapté
func Open(dsn string) (*sql.DB, Dialect, error) {
	dialect, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(string(dialect), driverDSN)
	if err != nil {
		return nil, "", eris.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, dialect, nil
}

func resolveDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	default:
		out, err := toMySQLDSN(dsn)
		return DialectMySQL, out, err
	}
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", eris.Wrap(err, "parse dsn")
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", eris.New("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// ledgerColumns suit l'ordre de scan de LoadTransactions.
var ledgerColumns = []string{
	ingest.ColInvoice, ingest.ColStockCode, ingest.ColDescription, ingest.ColQuantity,
	ingest.ColInvoiceDate, ingest.ColPrice, ingest.ColCustomerID, ingest.ColCountry, ingest.ColTotalAmount,
}

func quoteIdent(d Dialect, name string) string {
	if d == DialectPostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func ledgerQuery(d Dialect, tableName string) string {
	cols := make([]string, len(ledgerColumns))
	for i, c := range ledgerColumns {
		cols[i] = quoteIdent(d, c)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(cols, ", "), quoteIdent(d, tableName), quoteIdent(d, ingest.ColInvoiceDate))
}

// LoadTransactions lit la table du grand livre et la normalise comme une source fichier.
// Toute erreur SQL est une DataUnavailableError.
func LoadTransactions(ctx context.Context, db *sql.DB, d Dialect, tableName string) (models.Transactions, error) {
	source := string(d) + ":" + tableName
	if !tableNameRe.MatchString(tableName) {
		return nil, ingest.Unavailable(source, eris.Errorf("invalid table name %q", tableName))
	}

	q := ledgerQuery(d, tableName)
	log.Debug().Str("query", q).Msg("loading ledger")

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, ingest.Unavailable(source, eris.Wrap(err, "query ledger"))
	}
	defer rows.Close()

	var raws []models.RawTransaction
	skipped := 0
	for rows.Next() {
		var (
			invoice, stock, desc, customer, country sql.NullString
			qty, price, total                       sql.NullFloat64
			date                                    sql.NullTime
		)
		if err := rows.Scan(&invoice, &stock, &desc, &qty, &date, &price, &customer, &country, &total); err != nil {
			return nil, ingest.Unavailable(source, eris.Wrap(err, "scan ledger row"))
		}
		if !date.Valid {
			skipped++
			continue
		}
		raws = append(raws, models.RawTransaction{
			Invoice:     invoice.String,
			StockCode:   stock.String,
			Description: desc.String,
			Quantity:    int(qty.Float64),
			InvoiceDate: date.Time,
			Price:       price.Float64,
			CustomerID:  customer.String,
			Country:     country.String,
			TotalAmount: total.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, ingest.Unavailable(source, eris.Wrap(err, "iterate ledger"))
	}

	txs, dropped := ingest.Normalize(raws)
	log.Info().Str("source", source).Int("rows", len(raws)).Int("skipped_no_date", skipped).
		Int("dropped", dropped).Int("transactions", len(txs)).Msg("transactions loaded")
	return txs, nil
}
