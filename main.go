package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"marketing-analytics/pkg/calculator"
	"marketing-analytics/pkg/config"
	"marketing-analytics/pkg/database"
	"marketing-analytics/pkg/ingest"
	"marketing-analytics/pkg/logger"
	"marketing-analytics/pkg/models"
)

// options reçoit les flags communs ; ils ne surchargent la configuration que s'ils sont fournis.
type options struct {
	configPath   string
	source       string
	dsn          string
	table        string
	start        string
	end          string
	country      string
	returns      string
	minOrder     float64
	analysisDate string
	margin       float64
	retention    float64
	discountRate float64
	discountPct  float64
	mode         string
	segment      string
	logLevel     string
	outputDir    string
	timeout      time.Duration
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "marketing-analytics",
	Short: "RFM segmentation, cohort retention and CLV simulation over a transaction ledger",
	Long: `marketing-analytics turns a transaction ledger (CSV, XLSX or a SQL table) into
customer-level metrics: RFM scores and segments, cohort retention and ARPU matrices,
a closed-form CLV estimate and a what-if discount simulator.

Example usage:
  marketing-analytics rfm --source data/data_clean.csv --start 2010-12-01 --end 2011-12-09
  marketing-analytics cohort --country "United Kingdom" --returns exclude
  marketing-analytics simulate --discount-pct 0.1 --mode segment --segment loyal
  marketing-analytics export --output reports/`,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	f.StringVar(&opts.source, "source", "", "Transaction file (CSV or XLSX)")
	f.StringVar(&opts.dsn, "dsn", "", "SQL source DSN (mysql://, mariadb://, postgres://); env "+config.EnvDSN)
	f.StringVar(&opts.table, "table", "", "Ledger table name when --dsn is set")
	f.StringVar(&opts.start, "start", "", "Start date, inclusive (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", "", "End date, inclusive (YYYY-MM-DD)")
	f.StringVar(&opts.country, "country", "", "Country filter (Global = all)")
	f.StringVar(&opts.returns, "returns", "", "Returns handling: include, exclude, neutralize")
	f.Float64Var(&opts.minOrder, "min-order", 0, "Minimum invoice total")
	f.StringVar(&opts.analysisDate, "analysis-date", "", "RFM analysis date (YYYY-MM-DD); default end + 1 day")
	f.Float64Var(&opts.margin, "margin", 0, "Gross margin, in (0,1]")
	f.Float64Var(&opts.retention, "retention", 0, "Retention rate r, in (0,1)")
	f.Float64Var(&opts.discountRate, "discount-rate", 0, "Discount rate d, >= 0")
	f.Float64Var(&opts.discountPct, "discount-pct", 0, "Simulated commercial discount, in [0,1]")
	f.StringVar(&opts.mode, "mode", "", "Discount mode: global or segment")
	f.StringVar(&opts.segment, "segment", "", "Target segment for --mode segment")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.outputDir, "output", "", "Output folder")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Timeout for SQL sources")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig lit le fichier puis applique les flags explicitement fournis.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source.Path = opts.source
		cfg.Source.Fallbacks = nil
	}
	if changed("dsn") {
		cfg.Source.DSN = opts.dsn
	}
	if changed("table") {
		cfg.Source.Table = opts.table
	}
	if changed("start") {
		cfg.Filters.Start = opts.start
	}
	if changed("end") {
		cfg.Filters.End = opts.end
	}
	if changed("country") {
		cfg.Filters.Country = opts.country
	}
	if changed("returns") {
		cfg.Filters.Returns = opts.returns
	}
	if changed("min-order") {
		cfg.Filters.MinOrderValue = opts.minOrder
	}
	if changed("margin") {
		cfg.Valuation.Margin = opts.margin
	}
	if changed("retention") {
		cfg.Valuation.RetentionRate = opts.retention
	}
	if changed("discount-rate") {
		cfg.Valuation.DiscountRate = opts.discountRate
	}
	if changed("discount-pct") {
		cfg.Scenario.DiscountPct = opts.discountPct
	}
	if changed("mode") {
		cfg.Scenario.Mode = opts.mode
	}
	if changed("segment") {
		cfg.Scenario.TargetSegment = opts.segment
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("output") {
		cfg.Output.Dir = opts.outputDir
	}

	logger.Init(cfg.Log.Level, cfg.Log.Console)
	return cfg, cfg.Validate()
}

// loadTable charge la source configurée. Une DataUnavailableError arrête la commande.
func loadTable(ctx context.Context, cfg config.Config) (models.Transactions, error) {
	if cfg.Source.DSN == "" {
		return ingest.LoadFile(cfg.Source.Path, cfg.Source.Fallbacks...)
	}

	db, dialect, err := database.Open(cfg.Source.DSN)
	if err != nil {
		return nil, ingest.Unavailable("dsn", err)
	}
	defer db.Close()
	log.Info().Str("driver", string(dialect)).Str("table", cfg.Source.Table).Msg("connected")

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return database.LoadTransactions(ctx, db, dialect, cfg.Source.Table)
}

// analyze exécute le pipeline complet pour une commande.
func analyze(cmd *cobra.Command) (config.Config, models.Report, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, models.Report{}, err
	}
	table, err := loadTable(cmd.Context(), cfg)
	if err != nil {
		return cfg, models.Report{}, err
	}

	run, err := cfg.RunConfig()
	if err != nil {
		return cfg, models.Report{}, err
	}
	if err := calculator.CheckCountry(table, run.Filters.Country); err != nil {
		return cfg, models.Report{}, err
	}
	run.Verbose = true
	if opts.analysisDate != "" {
		run.AnalysisDate, err = time.Parse(time.DateOnly, opts.analysisDate)
		if err != nil {
			return cfg, models.Report{}, fmt.Errorf("invalid --analysis-date: %w", err)
		}
	}

	report, err := calculator.Run(table, run)
	if err != nil {
		return cfg, report, err
	}
	if report.Transactions == 0 {
		fmt.Println("No data for this selection. Widen the filters.")
	}
	return cfg, report, nil
}
