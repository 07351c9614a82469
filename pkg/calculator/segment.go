package calculator

import "marketing-analytics/pkg/models"

// SegmentFor applique la table de décision RFM ; la première règle satisfaite gagne.
// Des scores hors de 1..5 donnent le segment de repli avec la priorité la plus basse.
func SegmentFor(r, f, m int) (models.Segment, models.Priority) {
	if !validScore(r) || !validScore(f) || !validScore(m) {
		return models.SegmentUnknown, models.PriorityLowest
	}
	switch {
	case r >= 5 && f >= 5 && m >= 5:
		return models.SegmentChampions, 1
	case r >= 4 && f >= 4:
		return models.SegmentLoyal, 2
	case r >= 4 && f <= 2:
		return models.SegmentPromisingNew, 3
	case r <= 2 && f >= 4:
		return models.SegmentAtRiskHighValue, 4
	case r <= 2 && f <= 2:
		return models.SegmentLost, 6
	case m >= 4:
		return models.SegmentBigSpenderRisk, 3
	default:
		return models.SegmentPotential, 5
	}
}

func validScore(s int) bool { return s >= 1 && s <= 5 }
