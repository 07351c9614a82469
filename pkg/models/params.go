package models

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// CountryGlobal désactive le filtre pays.
const CountryGlobal = "Global"

// ReturnsMode est la politique de traitement des retours.
type ReturnsMode string

const (
	ReturnsInclude    ReturnsMode = "include"
	ReturnsExclude    ReturnsMode = "exclude"
	ReturnsNeutralize ReturnsMode = "neutralize"
)

// ParseReturnsMode accepte aussi les libellés du tableau de bord ("Exclure", "Neutraliser").
func ParseReturnsMode(s string) (ReturnsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "include", "inclure":
		return ReturnsInclude, nil
	case "exclude", "exclure":
		return ReturnsExclude, nil
	case "", "neutralize", "neutraliser":
		return ReturnsNeutralize, nil
	}
	return "", eris.Errorf("unknown returns mode %q", s)
}

// FilterParams décrit une sélection. Une borne de date nulle n'est pas appliquée.
type FilterParams struct {
	Start         time.Time   `json:"start" yaml:"start"`
	End           time.Time   `json:"end" yaml:"end"`
	Country       string      `json:"country" yaml:"country"`
	Returns       ReturnsMode `json:"returns" yaml:"returns"`
	MinOrderValue float64     `json:"min_order_value" yaml:"min_order_value"`
}

func (p FilterParams) Validate() error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return eris.Errorf("end date %s is before start date %s",
			p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	switch p.Returns {
	case ReturnsInclude, ReturnsExclude, ReturnsNeutralize:
	default:
		return eris.Errorf("unknown returns mode %q", p.Returns)
	}
	if p.MinOrderValue < 0 {
		return eris.New("min order value must be >= 0")
	}
	return nil
}

// ValuationParams sont les hypothèses de la formule CLV, passées explicitement à chaque appel.
type ValuationParams struct {
	Margin        float64 `json:"margin" yaml:"margin"`
	RetentionRate float64 `json:"retention_rate" yaml:"retention_rate"`
	DiscountRate  float64 `json:"discount_rate" yaml:"discount_rate"`
}

// Validate vérifie margin ∈ (0,1], retention ∈ (0,1), discount ≥ 0.
func (p ValuationParams) Validate() error {
	var errs []string
	if p.Margin <= 0 || p.Margin > 1 {
		errs = append(errs, "margin must be in (0,1]")
	}
	if p.RetentionRate <= 0 || p.RetentionRate >= 1 {
		errs = append(errs, "retention_rate must be in (0,1)")
	}
	if p.DiscountRate < 0 {
		errs = append(errs, "discount_rate must be >= 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("valuation: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DiscountMode indique à qui s'applique la remise simulée.
type DiscountMode string

const (
	DiscountGlobal     DiscountMode = "global"
	DiscountPerSegment DiscountMode = "segment"
)

func ParseDiscountMode(s string) (DiscountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global", "globale":
		return DiscountGlobal, nil
	case "segment", "per-segment", "par segment":
		return DiscountPerSegment, nil
	}
	return "", eris.Errorf("unknown discount mode %q", s)
}

// ScenarioParams décrit une simulation « what-if ».
type ScenarioParams struct {
	Valuation     ValuationParams `json:"valuation" yaml:"valuation"`
	Mode          DiscountMode    `json:"mode" yaml:"mode"`
	DiscountPct   float64         `json:"discount_pct" yaml:"discount_pct"`
	TargetSegment Segment         `json:"target_segment,omitempty" yaml:"target_segment"`
}

func (s ScenarioParams) Validate() error {
	if err := s.Valuation.Validate(); err != nil {
		return err
	}
	if s.DiscountPct < 0 || s.DiscountPct > 1 {
		return eris.New("scenario: discount_pct must be in [0,1]")
	}
	switch s.Mode {
	case DiscountGlobal:
	case DiscountPerSegment:
		if _, err := ParseSegment(string(s.TargetSegment)); err != nil {
			return eris.Wrap(err, "scenario")
		}
	default:
		return eris.Errorf("scenario: unknown discount mode %q", s.Mode)
	}
	return nil
}

var segmentAliases = map[string]Segment{
	"champions":   SegmentChampions,
	"loyal":       SegmentLoyal,
	"promising":   SegmentPromisingNew,
	"at-risk":     SegmentAtRiskHighValue,
	"lost":        SegmentLost,
	"big-spender": SegmentBigSpenderRisk,
	"potential":   SegmentPotential,
}

// Segments liste les segments de la table de décision, dans l'ordre d'évaluation.
func Segments() []Segment {
	return []Segment{
		SegmentChampions, SegmentLoyal, SegmentPromisingNew, SegmentAtRiskHighValue,
		SegmentLost, SegmentBigSpenderRisk, SegmentPotential,
	}
}

// ParseSegment accepte le libellé exact ou un alias court ("loyal", "at-risk"...).
func ParseSegment(s string) (Segment, error) {
	s = strings.TrimSpace(s)
	for _, seg := range Segments() {
		if string(seg) == s {
			return seg, nil
		}
	}
	if seg, ok := segmentAliases[strings.ToLower(s)]; ok {
		return seg, nil
	}
	return "", eris.Errorf("unknown segment %q", s)
}
