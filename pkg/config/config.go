// Package config charge la configuration YAML de l'outil et la convertit en paramètres
// de calcul explicites.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"marketing-analytics/pkg/models"
)

// EnvDSN permet de fournir la base source sans l'écrire dans le fichier.
const EnvDSN = "MARKETING_ANALYTICS_DSN"

type Config struct {
	Source    SourceConfig           `yaml:"source"`
	Filters   FiltersConfig          `yaml:"filters"`
	Valuation models.ValuationParams `yaml:"valuation"`
	Scenario  ScenarioConfig         `yaml:"scenario"`
	Output    OutputConfig           `yaml:"output"`
	Log       LogConfig              `yaml:"log"`
}

// SourceConfig : un fichier (CSV/XLSX) ou une table SQL si DSN est renseigné.
type SourceConfig struct {
	Path      string   `yaml:"path"`
	Fallbacks []string `yaml:"fallbacks"`
	DSN       string   `yaml:"dsn"`
	Table     string   `yaml:"table"`
}

// FiltersConfig : dates au format YYYY-MM-DD, bornes incluses.
type FiltersConfig struct {
	Start         string  `yaml:"start"`
	End           string  `yaml:"end"`
	Country       string  `yaml:"country"`
	Returns       string  `yaml:"returns"`
	MinOrderValue float64 `yaml:"min_order_value"`
}

type ScenarioConfig struct {
	Mode          string  `yaml:"mode"`
	DiscountPct   float64 `yaml:"discount_pct"`
	TargetSegment string  `yaml:"target_segment"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default reprend les valeurs initiales du tableau de bord.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Path:      "app/data/data_clean.csv",
			Fallbacks: []string{"../data/data_clean.csv", "data_clean.csv"},
			Table:     "transactions",
		},
		Filters: FiltersConfig{
			Country: models.CountryGlobal,
			Returns: string(models.ReturnsNeutralize),
		},
		Valuation: models.ValuationParams{
			Margin:        0.30,
			RetentionRate: 0.50,
			DiscountRate:  0.10,
		},
		Scenario: ScenarioConfig{Mode: string(models.DiscountGlobal)},
		Output:   OutputConfig{Dir: "reports"},
		Log:      LogConfig{Level: "info", Console: true},
	}
}

// Load lit path par-dessus Default. Un chemin vide retourne Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, eris.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "parse config %s", path)
		}
	}
	if cfg.Source.DSN == "" {
		cfg.Source.DSN = os.Getenv(EnvDSN)
	}
	return cfg, nil
}

// Validate vérifie la cohérence de toute la configuration et regroupe les erreurs.
func (c Config) Validate() error {
	var errs []string
	if c.Source.Path == "" && c.Source.DSN == "" {
		errs = append(errs, "source: path or dsn is required")
	}
	if c.Source.DSN != "" && c.Source.Table == "" {
		errs = append(errs, "source: table is required with dsn")
	}
	if _, err := c.FilterParams(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.ScenarioParams(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return eris.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// FilterParams convertit la section filters ; la date de fin couvre toute la journée.
func (c Config) FilterParams() (models.FilterParams, error) {
	var p models.FilterParams
	var err error
	if p.Start, err = parseDay(c.Filters.Start); err != nil {
		return p, eris.Wrap(err, "filters.start")
	}
	if p.End, err = parseDay(c.Filters.End); err != nil {
		return p, eris.Wrap(err, "filters.end")
	}
	if !p.End.IsZero() {
		p.End = p.End.Add(24*time.Hour - time.Nanosecond)
	}
	if p.Returns, err = models.ParseReturnsMode(c.Filters.Returns); err != nil {
		return p, eris.Wrap(err, "filters.returns")
	}
	p.Country = c.Filters.Country
	if p.Country == "" {
		p.Country = models.CountryGlobal
	}
	p.MinOrderValue = c.Filters.MinOrderValue
	return p, p.Validate()
}

// ScenarioParams convertit les sections valuation et scenario.
func (c Config) ScenarioParams() (models.ScenarioParams, error) {
	mode, err := models.ParseDiscountMode(c.Scenario.Mode)
	if err != nil {
		return models.ScenarioParams{}, eris.Wrap(err, "scenario.mode")
	}
	s := models.ScenarioParams{
		Valuation:   c.Valuation,
		Mode:        mode,
		DiscountPct: c.Scenario.DiscountPct,
	}
	if c.Scenario.TargetSegment != "" {
		seg, err := models.ParseSegment(c.Scenario.TargetSegment)
		if err != nil {
			return s, eris.Wrap(err, "scenario.target_segment")
		}
		s.TargetSegment = seg
	}
	return s, s.Validate()
}

// RunConfig construit les paramètres d'exécution du pipeline en une seule conversion.
func (c Config) RunConfig() (models.Config, error) {
	filters, err := c.FilterParams()
	if err != nil {
		return models.Config{}, err
	}
	scenario, err := c.ScenarioParams()
	if err != nil {
		return models.Config{}, err
	}
	return models.Config{Filters: filters, Scenario: scenario}, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, eris.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
