package analysis

import (
	"sort"
)

// Apply filters and orders evaluations according to q. The input slice is
// not modified.
func (a *Analyzer) Apply(evals []Evaluation, q Query) []Evaluation {
	out := make([]Evaluation, 0, len(evals))
	for _, e := range evals {
		if matches(e, q) && (!q.Conservative || a.conservative(e)) {
			out = append(out, e)
		}
	}

	key := q.Sort
	if key == "" {
		key = SortExpectedAARR
		if q.Conservative {
			key = SortDelta
		}
	}
	SortEvaluations(out, key)

	return out
}

func matches(e Evaluation, q Query) bool {
	c := e.Contract
	switch {
	case !q.Window.Contains(c.DaysToExpiration):
		return false
	case q.MinStrike > 0 && c.Strike < q.MinStrike:
		return false
	case q.MaxStrike > 0 && c.Strike > q.MaxStrike:
		return false
	case q.MinPremium > 0 && c.Premium < q.MinPremium:
		return false
	case q.MaxPremium > 0 && c.Premium > q.MaxPremium:
		return false
	case q.MinAARR != 0 && e.RankAARR() < q.MinAARR:
		return false
	case q.MaxAARR != 0 && e.RankAARR() > q.MaxAARR:
		return false
	}
	return true
}

// conservative keeps contracts with a known, small delta, a meaningful
// premium and a short horizon.
func (a *Analyzer) conservative(e Evaluation) bool {
	cfg := a.cfg.Conservative
	return e.Delta != nil &&
		*e.Delta <= cfg.MaxDelta &&
		e.Contract.Premium >= cfg.MinPremium &&
		e.Contract.DaysToExpiration <= cfg.MaxDays
}

// SortEvaluations orders evals in place. Ties keep their relative order.
func SortEvaluations(evals []Evaluation, key SortKey) {
	var less func(a, b Evaluation) bool

	switch key {
	case SortPointAARR:
		less = func(a, b Evaluation) bool { return a.PointAARR > b.PointAARR }
	case SortSafety:
		less = func(a, b Evaluation) bool { return a.SafetyScore > b.SafetyScore }
	case SortStrike:
		less = func(a, b Evaluation) bool { return a.Contract.Strike < b.Contract.Strike }
	case SortExpiration:
		less = func(a, b Evaluation) bool {
			if !a.Contract.ExpirationDate.Equal(b.Contract.ExpirationDate) {
				return a.Contract.ExpirationDate.Before(b.Contract.ExpirationDate)
			}
			return a.Contract.Strike < b.Contract.Strike
		}
	case SortDelta:
		less = func(a, b Evaluation) bool {
			switch {
			case a.Delta == nil:
				return false
			case b.Delta == nil:
				return true
			default:
				return *a.Delta < *b.Delta
			}
		}
	default:
		less = func(a, b Evaluation) bool { return a.RankAARR() > b.RankAARR() }
	}

	sort.SliceStable(evals, func(i, j int) bool { return less(evals[i], evals[j]) })
}

// ParseSortKey validates a sort key. The empty string is accepted and means
// the default order.
func ParseSortKey(s string) (SortKey, bool) {
	if s == "" {
		return "", true
	}
	for _, k := range ValidSortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
