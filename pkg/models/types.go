package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

/*
LOAD → types simples pour charger les transactions brutes (fichier ou base de données).
*/

// RawTransaction représente une ligne du grand livre telle qu'elle est lue depuis la source,
// avant renommage et nettoyage. CustomerID reste brut : il peut être vide ou non numérique.
type RawTransaction struct {
	Invoice     string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	Price       float64
	CustomerID  string
	Country     string
	TotalAmount float64
}

// ReturnPrefix marque les factures d'annulation (retours).
const ReturnPrefix = "C"

// Transaction est une ligne normalisée. IsReturn est dérivé une seule fois au chargement.
type Transaction struct {
	InvoiceNo       string
	StockCode       string
	Description     string
	Quantity        int
	TransactionDate time.Time
	UnitPrice       float64
	CustomerID      int64
	Country         string
	TotalSales      float64
	IsReturn        bool
}

// Transactions est la table de transactions normalisée.
type Transactions []Transaction

// Clone retourne une copie indépendante (jamais nil).
func (t Transactions) Clone() Transactions {
	out := make(Transactions, len(t))
	copy(out, t)
	return out
}

/*
RFM → une ligne par client
*/

// Segment est le libellé CRM attribué par la table de décision RFM.
type Segment string

const (
	SegmentChampions       Segment = "Champions"
	SegmentLoyal           Segment = "Fidèles"
	SegmentPromisingNew    Segment = "Nouveaux Prometteurs"
	SegmentAtRiskHighValue Segment = "À Risque (Haute Valeur)"
	SegmentLost            Segment = "Perdus / Dormants"
	SegmentBigSpenderRisk  Segment = "Gros Dépensiers (Risque)"
	SegmentPotential       Segment = "Potentiels"
	SegmentUnknown         Segment = "Inconnu"
)

// Priority est le rang CRM d'un segment (1 = le plus urgent). Zéro signifie « absent ».
type Priority int

const (
	PriorityAbsent Priority = 0
	PriorityLowest Priority = 6
)

// Valid indique si la priorité a été renseignée.
func (p Priority) Valid() bool { return p > PriorityAbsent }

// String retourne "" pour une priorité absente.
func (p Priority) String() string {
	if !p.Valid() {
		return ""
	}
	return strconv.Itoa(int(p))
}

// RFMRecord contient les mesures et scores RFM d'un client.
type RFMRecord struct {
	CustomerID int64    `json:"customer_id"`
	Recency    int      `json:"recency"`
	Frequency  int      `json:"frequency"`
	Monetary   float64  `json:"monetary"`
	RScore     int      `json:"r_score"`
	FScore     int      `json:"f_score"`
	MScore     int      `json:"m_score"`
	RFMScore   string   `json:"rfm_score"`
	Segment    Segment  `json:"segment"`
	Priority   Priority `json:"priority,omitempty"`
}

// RFMTable est triée par CustomerID croissant.
type RFMTable []RFMRecord

// RFMDiagnostics expose les conditions non bloquantes rencontrées pendant le scoring.
type RFMDiagnostics struct {
	Customers           int    `json:"customers"`
	ExcludedNonPositive int    `json:"excluded_non_positive"`
	ScoringFallback     bool   `json:"scoring_fallback"`
	FallbackReason      string `json:"fallback_reason,omitempty"`
}

/*
COHORTES → matrices indexées par (CohortMonth, CohortIndex)
*/

// CohortMatrix est une matrice dense ; une cellule absente vaut NaN.
type CohortMatrix struct {
	Cohorts []string    // libellés "YYYY-MM", triés
	Indices []int       // CohortIndex observés, triés
	Values  [][]float64 // Values[ligne][colonne]
}

// Empty indique une matrice sans ligne.
func (m CohortMatrix) Empty() bool { return len(m.Cohorts) == 0 }

// Value retourne la cellule (cohort, index) et false si elle est absente.
func (m CohortMatrix) Value(cohort string, index int) (float64, bool) {
	for i, c := range m.Cohorts {
		if c != cohort {
			continue
		}
		for j, idx := range m.Indices {
			if idx == index {
				v := m.Values[i][j]
				return v, !math.IsNaN(v)
			}
		}
		return 0, false
	}
	return 0, false
}

// MarshalJSON encode les cellules absentes en null.
func (m CohortMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				v := row[j]
				values[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Cohorts []string     `json:"cohorts"`
		Indices []int        `json:"indices"`
		Values  [][]*float64 `json:"values"`
	}{m.Cohorts, m.Indices, values})
}

// CohortSize est le nombre de clients acquis dans un mois donné.
type CohortSize struct {
	Cohort    string `json:"cohort"`
	Customers int    `json:"customers"`
}

// CohortResult regroupe la matrice de rétention (%), la matrice ARPU et les tailles.
type CohortResult struct {
	Retention CohortMatrix `json:"retention"`
	ARPU      CohortMatrix `json:"arpu"`
	Sizes     []CohortSize `json:"sizes"`
}

// Empty indique qu'aucune cohorte n'a pu être construite.
func (r CohortResult) Empty() bool { return r.Retention.Empty() }

/*
COMPUTE → agrégats du tableau de bord
*/

// Overview contient les KPI globaux de la période filtrée.
type Overview struct {
	ActiveCustomers int     `json:"active_customers"`
	Invoices        int     `json:"invoices"`
	TotalRevenue    float64 `json:"total_revenue"`
	AverageBasket   float64 `json:"average_basket"`
	EmpiricalCLV    float64 `json:"empirical_clv"`
}

// SegmentStats résume un segment RFM.
type SegmentStats struct {
	Segment       Segment `json:"segment"`
	Customers     int     `json:"customers"`
	TotalMonetary float64 `json:"total_monetary"`
	MeanMonetary  float64 `json:"mean_monetary"`
	MeanRecency   float64 `json:"mean_recency"`
}

// MonthlyRevenue est le chiffre d'affaires d'un mois calendaire ("YYYY-MM").
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// ScenarioComparison compare la simulation à la référence sans remise.
type ScenarioComparison struct {
	BaselineCLV      float64 `json:"baseline_clv"`
	BaselineRevenue  float64 `json:"baseline_revenue"`
	SimulatedCLV     float64 `json:"simulated_clv"`
	SimulatedRevenue float64 `json:"simulated_revenue"`
	DeltaCLV         float64 `json:"delta_clv"`
	DeltaRevenue     float64 `json:"delta_revenue"`
}

// SweepPoint est un point d'un balayage du taux de rétention.
type SweepPoint struct {
	RetentionRate float64 `json:"retention_rate"`
	CLV           float64 `json:"clv"`
	Revenue       float64 `json:"revenue"`
}

// Report est le résultat complet d'une exécution du pipeline.
type Report struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	AnalysisDate time.Time          `json:"analysis_date"`
	Filters      FilterParams       `json:"filters"`
	Scenario     ScenarioParams     `json:"scenario"`
	Transactions int                `json:"transactions"`
	Countries    []string           `json:"countries"`
	Overview     Overview           `json:"overview"`
	Segments     []SegmentStats     `json:"segments"`
	Trend        []MonthlyRevenue   `json:"trend"`
	Cohorts      CohortResult       `json:"cohorts"`
	Comparison   ScenarioComparison `json:"comparison"`
	Diagnostics  RFMDiagnostics     `json:"diagnostics"`

	RFM      RFMTable     `json:"-"`
	Filtered Transactions `json:"-"`
}

/*
CONFIG → paramètres d'une exécution
*/

// Config contient les paramètres passés à calculator.Run.
type Config struct {
	Filters      FilterParams
	AnalysisDate time.Time // zéro : fin du filtre + 1 jour
	Scenario     ScenarioParams
	Verbose      bool
}
