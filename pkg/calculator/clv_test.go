package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketing-analytics/pkg/models"
)

func TestCLVFormula(t *testing.T) {
	p := models.ValuationParams{Margin: 0.3, RetentionRate: 0.6, DiscountRate: 0.1}
	assert.InDelta(t, 600.0, CLVFormula(1000, p), 1e-9)
	assert.InDelta(t, 0.0, CLVFormula(0, p), 1e-12)
}

func TestCLVFormula_DegenerateDenominator(t *testing.T) {
	cases := []models.ValuationParams{
		{Margin: 0.3, RetentionRate: 1, DiscountRate: 0},
		{Margin: 0.3, RetentionRate: 0.99995, DiscountRate: 0},
		{Margin: 0.3, RetentionRate: 1.2, DiscountRate: 0.1},
	}
	for _, p := range cases {
		assert.Equal(t, 0.0, CLVFormula(1000, p), "%+v", p)
	}
}

func TestCLVFormula_MonotonicInRetention(t *testing.T) {
	low := CLVFormula(500, models.ValuationParams{Margin: 0.3, RetentionRate: 0.4, DiscountRate: 0.1})
	high := CLVFormula(500, models.ValuationParams{Margin: 0.3, RetentionRate: 0.8, DiscountRate: 0.1})
	assert.Greater(t, high, low)
}

func TestCLVFormulaSeries(t *testing.T) {
	p := models.ValuationParams{Margin: 0.5, RetentionRate: 0.5, DiscountRate: 0.5}
	out := CLVFormulaSeries([]float64{10, 0, 200}, p)
	assert.InDeltaSlice(t, []float64{5, 0, 100}, out, 1e-9)
	assert.Empty(t, CLVFormulaSeries(nil, p))
}
