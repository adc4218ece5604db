// Package probability builds discretized future-price distributions for a
// single expiry under a drift-free log-normal model.
package probability

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/pkg/formulas"
)

// TotalMass is the sum of a normalized distribution. Masses are in percent.
const TotalMass = 100.0

// Grid bounds relative to the current price.
const (
	GridLowerMultiple = 0.5
	GridUpperMultiple = 2.0

	DefaultGridPoints = 200
	MinGridPoints     = 100
	MaxGridPoints     = 300
)

// Point is one price level of a distribution and the mass assigned to it.
type Point struct {
	Price float64 `json:"price"`
	Mass  float64 `json:"mass"`
}

// Distribution is an ordered discretized price distribution. Masses sum to
// TotalMass, or to zero when the model could not assign any mass.
type Distribution struct {
	Points  []Point `json:"points"`
	Uniform bool    `json:"uniform"` // volatility was unknown
}

// Prices returns the support of the distribution in order.
func (d Distribution) Prices() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Price
	}
	return out
}

// Masses returns the masses of the distribution in order.
func (d Distribution) Masses() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Mass
	}
	return out
}

// Total returns the sum of all masses.
func (d Distribution) Total() float64 {
	var sum float64
	for _, p := range d.Points {
		sum += p.Mass
	}
	return sum
}

// HasMass reports whether any mass was assigned.
func (d Distribution) HasMass() bool {
	return d.Total() > 0
}

// MassAbove returns the fraction (0..1) of mass at prices >= level.
func (d Distribution) MassAbove(level float64) float64 {
	return d.fraction(func(price float64) bool { return price >= level })
}

// MassBelow returns the fraction (0..1) of mass at prices < level.
func (d Distribution) MassBelow(level float64) float64 {
	return d.fraction(func(price float64) bool { return price < level })
}

// MassNear returns the fraction (0..1) of mass within ±band×level of level.
func (d Distribution) MassNear(level, band float64) float64 {
	lo, hi := level*(1-band), level*(1+band)
	return d.fraction(func(price float64) bool { return price >= lo && price <= hi })
}

func (d Distribution) fraction(in func(price float64) bool) float64 {
	total := d.Total()
	if total <= 0 {
		return 0
	}
	var sum float64
	for _, p := range d.Points {
		if in(p.Price) {
			sum += p.Mass
		}
	}
	return sum / total
}

// Grid returns n evenly spaced target prices between 0.5× and 2.0× the
// current price. n is clamped to [MinGridPoints, MaxGridPoints]; zero or a
// negative value selects DefaultGridPoints.
func Grid(currentPrice float64, n int) []float64 {
	return formulas.Linspace(currentPrice*GridLowerMultiple, currentPrice*GridUpperMultiple, ClampGridPoints(n))
}

// ClampGridPoints applies the grid size policy used by Grid.
func ClampGridPoints(n int) int {
	switch {
	case n <= 0:
		return DefaultGridPoints
	case n < MinGridPoints:
		return MinGridPoints
	case n > MaxGridPoints:
		return MaxGridPoints
	default:
		return n
	}
}

// PriceDistribution assigns probability mass to each target price for an
// expiry daysToExpiry calendar days away.
//
// With unknown or non-positive volatility every target gets 100/n. Otherwise
// ln(price/current) is treated as normal with mean -½v²t and standard
// deviation v√t (t in years of 365 days). The density at each target is
// turned into mass by the step between the first two targets and the 1/price
// Jacobian, then renormalized to TotalMass. If no target receives mass the
// zero vector is returned as is.
//
// A zero horizon (same-day expiry) is a point mass on the current price
// itself; that price is added to the support when targets does not hold it.
func PriceDistribution(currentPrice float64, targets []float64, daysToExpiry int, volatility *float64) (Distribution, error) {
	if currentPrice <= 0 || math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) {
		return Distribution{}, fmt.Errorf("current price %v must be positive and finite: %w", currentPrice, domain.ErrDomain)
	}
	if daysToExpiry < 0 {
		return Distribution{}, fmt.Errorf("days to expiry %d must not be negative: %w", daysToExpiry, domain.ErrDomain)
	}

	points := make([]Point, len(targets))
	for i, price := range targets {
		points[i].Price = price
	}
	if len(points) == 0 {
		return Distribution{Points: points}, nil
	}

	if volatility == nil || *volatility <= 0 {
		mass := TotalMass / float64(len(points))
		for i := range points {
			points[i].Mass = mass
		}
		return Distribution{Points: points, Uniform: true}, nil
	}

	t := float64(daysToExpiry) / 365.0
	sigma := *volatility * math.Sqrt(t)

	if sigma == 0 {
		return Distribution{Points: pointMass(points, currentPrice)}, nil
	}

	mu := -0.5 * *volatility * *volatility * t
	step := 0.0
	if len(targets) > 1 {
		step = math.Abs(targets[1] - targets[0])
	}

	var sum float64
	for i, price := range targets {
		if price <= 0 {
			continue
		}
		mass := formulas.NormalPDF(math.Log(price/currentPrice), mu, sigma) * step / price
		if math.IsNaN(mass) || math.IsInf(mass, 0) || mass < 0 {
			continue
		}
		points[i].Mass = mass
		sum += mass
	}

	if sum > 0 {
		scale := TotalMass / sum
		for i := range points {
			points[i].Mass *= scale
		}
	}

	return Distribution{Points: points}, nil
}

// pointMass puts all mass on exactly price. If price is not already part of
// the (ascending) support it is inserted in order, so the result may be one
// point longer than the input.
func pointMass(points []Point, price float64) []Point {
	at := sort.Search(len(points), func(i int) bool { return points[i].Price >= price })
	if at < len(points) && points[at].Price == price {
		points[at].Mass = TotalMass
		return points
	}

	out := make([]Point, 0, len(points)+1)
	out = append(out, points[:at]...)
	out = append(out, Point{Price: price, Mass: TotalMass})
	return append(out, points[at:]...)
}
