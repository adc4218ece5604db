package classification

import (
	"testing"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		strike   float64
		expected domain.Regime
	}{
		{"well below", 80, domain.RegimeDeepITM},
		{"just below deep ITM boundary", 94, domain.RegimeDeepITM},
		{"deep ITM boundary is ITM", 95, domain.RegimeITM},
		{"just below market", 99.99, domain.RegimeITM},
		{"at market", 100, domain.RegimeATM},
		{"upper ATM boundary inclusive", 105, domain.RegimeATM},
		{"just above ATM", 105.01, domain.RegimeOTM},
		{"OTM boundary inclusive", 115, domain.RegimeOTM},
		{"just above OTM", 116, domain.RegimeDeepOTM},
		{"far above", 200, domain.RegimeDeepOTM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.strike, 100))
		})
	}
}

func TestClassify_ScalesWithMarketPrice(t *testing.T) {
	assert.Equal(t, domain.RegimeITM, Classify(47.5, 50))
	assert.Equal(t, domain.RegimeATM, Classify(52.5, 50))
	assert.Equal(t, domain.RegimeOTM, Classify(57.5, 50))
	assert.Equal(t, domain.RegimeDeepITM, Classify(47.49, 50))
}

func TestThresholds_Custom(t *testing.T) {
	th := Thresholds{DeepITMBelow: 0.9, ATMFrom: 0.98, ATMTo: 1.02, OTMTo: 1.1}

	assert.Equal(t, domain.RegimeITM, th.Classify(94, 100))
	assert.Equal(t, domain.RegimeATM, th.Classify(98, 100))
	assert.Equal(t, domain.RegimeOTM, th.Classify(105, 100))
	assert.Equal(t, domain.RegimeDeepOTM, th.Classify(111, 100))
}
