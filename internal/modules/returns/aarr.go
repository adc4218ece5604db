// Package returns computes the annualized adjusted rate of return (AARR) of a
// covered-call position and of the buy-and-hold baseline it is compared to.
package returns

import (
	"fmt"
	"math"

	"github.com/aristath/callwriter/internal/domain"
)

// SettlementLagDays is added to days-to-expiry before annualizing. Contracts
// expire on a Friday and cash or shares settle the following Monday.
const SettlementLagDays = 3

// DaysPerYear is the calendar-day year used for annualization.
const DaysPerYear = 365.0

// Outcome is the result of one return computation.
type Outcome struct {
	AnnualizedReturnPct float64  `json:"annualized_return_pct"`
	NetGain             float64  `json:"net_gain"`
	StartCapital        float64  `json:"start_capital"`
	EndCapital          float64  `json:"end_capital"`
	Exercised           bool     `json:"exercised"`
	Degraded            bool     `json:"degraded"`
	Warnings            []string `json:"warnings,omitempty"`
}

// Input describes one covered-call scenario.
//
// FinalPrice is the price at expiry; nil means unknown. ForceExercised
// overrides the exercise decision when set.
type Input struct {
	NumShares      int
	InitialPrice   float64
	StrikePrice    float64
	Premium        float64
	DaysToExpiry   int
	FinalPrice     *float64
	ForceExercised *bool
}

// Compute returns the covered-call outcome for in.
//
// Exercise is decided by ForceExercised when set, otherwise by
// FinalPrice >= StrikePrice, otherwise assumed. An unexercised position with
// no FinalPrice is settled at InitialPrice and marked Degraded.
func Compute(in Input) (Outcome, error) {
	if err := domain.ValidateShares(in.NumShares); err != nil {
		return Outcome{}, err
	}
	if in.DaysToExpiry < 0 {
		return Outcome{}, fmt.Errorf("days to expiry %d must not be negative: %w", in.DaysToExpiry, domain.ErrDomain)
	}

	exercised := true
	switch {
	case in.ForceExercised != nil:
		exercised = *in.ForceExercised
	case in.FinalPrice != nil:
		exercised = *in.FinalPrice >= in.StrikePrice
	}

	out := Outcome{Exercised: exercised}
	shares := float64(in.NumShares)
	out.StartCapital = in.InitialPrice * shares

	if exercised {
		out.EndCapital = (in.StrikePrice + in.Premium) * shares
	} else {
		final := in.InitialPrice
		if in.FinalPrice != nil {
			final = *in.FinalPrice
		} else {
			out.Degraded = true
			out.Warnings = append(out.Warnings, "final price unknown for unexercised position; settled at initial price")
		}
		out.EndCapital = (final + in.Premium) * shares
	}

	out.NetGain = out.EndCapital - out.StartCapital

	aarr, err := Annualize(out.StartCapital, out.EndCapital, in.DaysToExpiry)
	if err != nil {
		return Outcome{}, err
	}
	out.AnnualizedReturnPct = aarr

	return out, nil
}

// ComputeReturn is the positional form of Compute.
func ComputeReturn(numShares int, initialPrice, strikePrice, premium float64, daysToExpiry int, finalPrice *float64, forceExercised *bool) (Outcome, error) {
	return Compute(Input{
		NumShares:      numShares,
		InitialPrice:   initialPrice,
		StrikePrice:    strikePrice,
		Premium:        premium,
		DaysToExpiry:   daysToExpiry,
		FinalPrice:     finalPrice,
		ForceExercised: forceExercised,
	})
}

// ComputeHoldReturn is the buy-and-hold baseline: no premium, no strike cap,
// shares valued at finalPrice after days. Nothing is called away, so the
// outcome is never Exercised.
func ComputeHoldReturn(numShares int, initialPrice, finalPrice float64, days int) (Outcome, error) {
	out, err := Compute(Input{
		NumShares:      numShares,
		InitialPrice:   initialPrice,
		StrikePrice:    finalPrice,
		DaysToExpiry:   days,
		FinalPrice:     &finalPrice,
		ForceExercised: domain.Bool(true),
	})
	if err != nil {
		return Outcome{}, err
	}
	out.Exercised = false
	return out, nil
}

// Annualize compounds end/start over days plus the settlement lag and
// returns the result in percent. Both capitals must be positive.
func Annualize(startCapital, endCapital float64, days int) (float64, error) {
	if !(startCapital > 0) || math.IsInf(startCapital, 0) {
		return 0, fmt.Errorf("start capital %v must be positive: %w", startCapital, domain.ErrDomain)
	}
	if !(endCapital > 0) || math.IsInf(endCapital, 0) {
		return 0, fmt.Errorf("settlement capital %v must be positive: %w", endCapital, domain.ErrDomain)
	}
	if days < 0 {
		return 0, fmt.Errorf("days %d must not be negative: %w", days, domain.ErrDomain)
	}

	exponent := DaysPerYear / float64(days+SettlementLagDays)
	return (math.Pow(endCapital/startCapital, exponent) - 1) * 100, nil
}
