package calculator

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// MonthLayout est le format des libellés de cohorte et de mois.
const MonthLayout = "2006-01"

// ParseMonth("YYYY-MM") -> 1er jour du mois UTC
func ParseMonth(yyyymm string) (time.Time, error) {
	if len(yyyymm) != 7 || yyyymm[4] != '-' {
		return time.Time{}, eris.New("expected YYYY-MM (ex: 2010-12)")
	}
	t, err := time.Parse(MonthLayout, yyyymm)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid month %q", yyyymm)
	}
	return t, nil
}

// monthStart ramène t au premier jour de son mois calendaire, en UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetweenInclusive(start, end time.Time) []time.Time {
	cur := monthStart(start)
	last := monthStart(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

func formatMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// cohortIndex compte les tranches de 30 jours entre deux débuts de mois.
// Approximation conservée telle quelle : janvier → mars donne 1, juillet → septembre donne 2.
func cohortIndex(txMonth, cohortMonth time.Time) int {
	days := int(txMonth.Sub(cohortMonth) / (24 * time.Hour))
	return days / 30
}
