package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketing-analytics/pkg/models"
)

var baseValuation = models.ValuationParams{Margin: 0.3, RetentionRate: 0.5, DiscountRate: 0.1}

func twoSegments() models.RFMTable {
	return models.RFMTable{
		{CustomerID: 1, Monetary: 100, Segment: models.SegmentChampions},
		{CustomerID: 2, Monetary: 300, Segment: models.SegmentLoyal},
	}
}

func TestRunScenarioSimulation_NoDiscountIsBaseline(t *testing.T) {
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal}
	clv, revenue := RunScenarioSimulation(twoSegments(), s)
	baseCLV, baseRevenue := Baseline(twoSegments(), baseValuation)
	assert.Equal(t, baseCLV, clv)
	assert.Equal(t, baseRevenue, revenue)
	// moyenne 200 × 0.3 / (0.5 + 0.1)
	assert.InDelta(t, 100.0, clv, 1e-9)
	assert.InDelta(t, 400.0, revenue, 1e-9)
}

func TestRunScenarioSimulation_Global(t *testing.T) {
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal, DiscountPct: 0.1}
	clv, revenue := RunScenarioSimulation(twoSegments(), s)
	assert.InDelta(t, 360.0, revenue, 1e-9)
	assert.InDelta(t, 90.0, clv, 1e-9)

	s.DiscountPct = 1
	clv, revenue = RunScenarioSimulation(twoSegments(), s)
	assert.Equal(t, 0.0, revenue)
	assert.Equal(t, 0.0, clv)
}

func TestRunScenarioSimulation_PerSegment(t *testing.T) {
	s := models.ScenarioParams{
		Valuation:     baseValuation,
		Mode:          models.DiscountPerSegment,
		DiscountPct:   0.1,
		TargetSegment: models.SegmentLoyal,
	}
	clv, revenue := RunScenarioSimulation(twoSegments(), s)
	assert.InDelta(t, 370.0, revenue, 1e-9)
	assert.InDelta(t, 92.5, clv, 1e-9)

	s.TargetSegment = models.SegmentLost
	_, revenue = RunScenarioSimulation(twoSegments(), s)
	assert.InDelta(t, 400.0, revenue, 1e-9)
}

func TestRunScenarioSimulation_Empty(t *testing.T) {
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal, DiscountPct: 0.2}
	clv, revenue := RunScenarioSimulation(models.RFMTable{}, s)
	assert.Equal(t, 0.0, clv)
	assert.Equal(t, 0.0, revenue)
}

func TestRunScenarioSimulation_DoesNotMutateTable(t *testing.T) {
	rfm := twoSegments()
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal, DiscountPct: 0.5}
	RunScenarioSimulation(rfm, s)
	assert.Equal(t, twoSegments(), rfm)
}

func TestCompareScenario(t *testing.T) {
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal, DiscountPct: 0.1}
	c := CompareScenario(twoSegments(), s)
	assert.InDelta(t, 100.0, c.BaselineCLV, 1e-9)
	assert.InDelta(t, 90.0, c.SimulatedCLV, 1e-9)
	assert.InDelta(t, -10.0, c.DeltaCLV, 1e-9)
	assert.InDelta(t, -40.0, c.DeltaRevenue, 1e-9)
}

func TestRetentionRates(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5, 0.6, 0.7}, RetentionRates(0.5, 0.7, 0.1), 1e-9)
	assert.Len(t, RetentionRates(0.1, 0.95, 0.05), 18)
	assert.Empty(t, RetentionRates(0.5, 0.4, 0.1))
	assert.Empty(t, RetentionRates(0.1, 0.9, 0))
}

func TestSweepRetention(t *testing.T) {
	s := models.ScenarioParams{Valuation: baseValuation, Mode: models.DiscountGlobal}
	points := SweepRetention(twoSegments(), s, []float64{0.3, 0.5, 0.7}, false)
	require.Len(t, points, 3)
	assert.InDelta(t, 100.0, points[1].CLV, 1e-9)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].CLV, points[i-1].CLV)
		assert.Equal(t, points[0].Revenue, points[i].Revenue)
	}
	// le scénario de l'appelant n'est pas modifié
	assert.Equal(t, 0.5, s.Valuation.RetentionRate)
}
