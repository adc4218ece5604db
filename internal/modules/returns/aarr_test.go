package returns

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReturn_CalledAwayScenario(t *testing.T) {
	out, err := ComputeReturn(100, 100, 105, 2, 27, nil, nil)
	require.NoError(t, err)

	assert.True(t, out.Exercised)
	assert.False(t, out.Degraded)
	assert.Equal(t, 10000.0, out.StartCapital)
	assert.Equal(t, 10700.0, out.EndCapital)
	assert.InDelta(t, 700.0, out.NetGain, 1e-9)

	expected := (math.Pow(10700.0/10000.0, 365.0/30.0) - 1) * 100
	assert.Equal(t, expected, out.AnnualizedReturnPct)
	assert.InDelta(t, 127.77, out.AnnualizedReturnPct, 0.01)
}

func TestComputeReturn_InvalidShareCounts(t *testing.T) {
	for _, shares := range []int{0, 99, 150, -100} {
		_, err := ComputeReturn(shares, 100, 105, 2, 27, nil, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidPositionSize, "shares=%d", shares)
	}
}

func TestComputeReturn_ExerciseResolution(t *testing.T) {
	tests := []struct {
		name      string
		final     *float64
		force     *bool
		exercised bool
		end       float64
	}{
		{"final at strike is exercised", domain.Float64(105), nil, true, 10700},
		{"final above strike is exercised", domain.Float64(120), nil, true, 10700},
		{"final below strike keeps shares", domain.Float64(98), nil, false, 10000},
		{"no final price defaults to exercised", nil, nil, true, 10700},
		{"force overrides final price", domain.Float64(120), domain.Bool(false), false, 12200},
		{"force exercise below strike", domain.Float64(90), domain.Bool(true), true, 10700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ComputeReturn(100, 100, 105, 2, 27, tt.final, tt.force)
			require.NoError(t, err)
			assert.Equal(t, tt.exercised, out.Exercised)
			assert.InDelta(t, tt.end, out.EndCapital, 1e-9)
		})
	}
}

func TestComputeReturn_DegradedWithoutFinalPrice(t *testing.T) {
	out, err := ComputeReturn(200, 50, 55, 1, 10, nil, domain.Bool(false))
	require.NoError(t, err)

	assert.False(t, out.Exercised)
	assert.True(t, out.Degraded)
	assert.NotEmpty(t, out.Warnings)
	assert.Equal(t, 10200.0, out.EndCapital)
}

func TestComputeReturn_DomainErrors(t *testing.T) {
	_, err := ComputeReturn(100, 0, 105, 2, 27, nil, nil)
	assert.ErrorIs(t, err, domain.ErrDomain)

	_, err = ComputeReturn(100, -10, 105, 2, 27, nil, nil)
	assert.ErrorIs(t, err, domain.ErrDomain)

	_, err = ComputeReturn(100, 100, 105, 2, -1, nil, nil)
	assert.ErrorIs(t, err, domain.ErrDomain)

	_, err = ComputeReturn(100, 100, 105, 0, 27, domain.Float64(-5), nil)
	assert.ErrorIs(t, err, domain.ErrDomain)
}

func TestComputeReturn_Idempotent(t *testing.T) {
	a, err := ComputeReturn(300, 117.78, 116, 5.44, 24, domain.Float64(121.3), nil)
	require.NoError(t, err)
	b, err := ComputeReturn(300, 117.78, 116, 5.44, 24, domain.Float64(121.3), nil)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(a.AnnualizedReturnPct), math.Float64bits(b.AnnualizedReturnPct))
	assert.Equal(t, a, b)
}

func TestComputeHoldReturn(t *testing.T) {
	out, err := ComputeHoldReturn(100, 100, 110, 27)
	require.NoError(t, err)

	assert.Equal(t, 11000.0, out.EndCapital)
	assert.InDelta(t, (math.Pow(1.1, 365.0/30.0)-1)*100, out.AnnualizedReturnPct, 1e-9)
	assert.False(t, out.Exercised)
	assert.False(t, out.Degraded)

	flat, err := ComputeHoldReturn(100, 100, 100, 27)
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat.AnnualizedReturnPct)
	assert.False(t, flat.Exercised)

	down, err := ComputeHoldReturn(100, 100, 80, 27)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, down.EndCapital)
	assert.False(t, down.Exercised)
}

func TestAnnualize_ZeroDaysUsesSettlementLag(t *testing.T) {
	aarr, err := Annualize(100, 101, 0)
	require.NoError(t, err)
	assert.InDelta(t, (math.Pow(1.01, 365.0/3.0)-1)*100, aarr, 1e-9)
}

func TestPayoffCurve(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	contract, err := domain.NewContract(105, 2, now.AddDate(0, 0, 27), now)
	require.NoError(t, err)

	curve, err := PayoffCurve(100, contract)
	require.NoError(t, err)
	require.Len(t, curve.Points, CurvePoints)

	assert.InDelta(t, 50, curve.Points[0].FinalPrice, 1e-9)
	assert.InDelta(t, 300, curve.Points[len(curve.Points)-1].FinalPrice, 1e-9)

	s := curve.Summary
	assert.InDelta(t, 98, s.StaticBreakeven, 1e-9)
	assert.InDelta(t, 5, s.PctOTM, 1e-9)
	assert.InDelta(t, 2, s.CushionPct, 1e-9)
	assert.InDelta(t, 98, s.BreakevenPrice, 1.0)
	// Holding overtakes once the price clears strike plus premium.
	assert.InDelta(t, 107, s.CrossoverPrice, 1.0)
	assert.False(t, s.HoldingDominates)
	assert.InDelta(t, (math.Pow(1.07, 365.0/30.0)-1)*100, s.MaxCoveredAARR, 1e-9)
}
