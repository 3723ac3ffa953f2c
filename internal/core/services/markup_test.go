package services_test

import (
	"testing"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
	"github.com/EG0RIAN/tg-exhange-bot/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestApplyMarkup_NilRulePassesThrough(t *testing.T) {
	raw := d("81.5")
	assert.True(t, raw.Equal(services.ApplyMarkup(raw, nil)))
}

func TestApplyMarkup(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		percent  string
		fixed    string
		mode     domain.RoundingMode
		roundTo  int32
		expected string
	}{
		{
			name:     "percent only",
			raw:      "100",
			percent:  "2.5",
			fixed:    "0",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "102.5",
		},
		{
			name:     "fixed only",
			raw:      "100",
			percent:  "0",
			fixed:    "0.5",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "100.5",
		},
		{
			name:     "percent and fixed combined",
			raw:      "80",
			percent:  "2",
			fixed:    "0.1",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "81.7",
		},
		{
			name:     "negative percent discounts",
			raw:      "100",
			percent:  "-1",
			fixed:    "0",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "99",
		},
		{
			name:     "result is not clamped at zero",
			raw:      "10",
			percent:  "-100",
			fixed:    "-5",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "-5",
		},
		{
			name:     "half up rounds the midpoint away",
			raw:      "100.005",
			percent:  "0",
			fixed:    "0",
			mode:     domain.RoundHalfUp,
			roundTo:  2,
			expected: "100.01",
		},
		{
			name:     "down truncates",
			raw:      "100.009",
			percent:  "0",
			fixed:    "0",
			mode:     domain.RoundDown,
			roundTo:  2,
			expected: "100",
		},
		{
			name:     "up rounds away from zero",
			raw:      "100.001",
			percent:  "0",
			fixed:    "0",
			mode:     domain.RoundUp,
			roundTo:  2,
			expected: "100.01",
		},
		{
			name:     "bankers rounds the midpoint to even",
			raw:      "100.005",
			percent:  "0",
			fixed:    "0",
			mode:     domain.RoundBanker,
			roundTo:  2,
			expected: "100",
		},
		{
			name:     "round to whole units",
			raw:      "81.5",
			percent:  "2",
			fixed:    "0",
			mode:     domain.RoundHalfUp,
			roundTo:  0,
			expected: "83",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := &domain.MarkupRule{
				RuleID:       "rule-1",
				Level:        domain.RuleLevelGlobal,
				Percent:      d(tc.percent),
				Fixed:        d(tc.fixed),
				RoundingMode: tc.mode,
				RoundTo:      tc.roundTo,
				Enabled:      true,
			}
			got := services.ApplyMarkup(d(tc.raw), rule)
			assert.True(t, d(tc.expected).Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestRoundPrice_UnknownModeFallsBackToHalfUp(t *testing.T) {
	got := services.RoundPrice(d("1.005"), domain.RoundingMode("NEAREST"), 2)
	assert.True(t, d("1.01").Equal(got), "got %s", got)
}
