package safety

import (
	"github.com/google/uuid"
)

// NeutralScore is returned when a batch gives nothing to rank against.
const NeutralScore = 5.0

// Batch is the set of raw scores one fetch produced. Normalized scores are
// only meaningful within the batch they were computed from; build a new
// Batch for every fetch.
type Batch struct {
	ID  string
	raw []float64
}

// NewBatch snapshots raw. Later changes to raw do not affect the batch.
func NewBatch(raw []float64) *Batch {
	return &Batch{
		ID:  uuid.New().String(),
		raw: append([]float64(nil), raw...),
	}
}

// Len returns the number of scores in the batch.
func (b *Batch) Len() int {
	return len(b.raw)
}

// Percentile returns the mid-rank percentile (0-100) of score in the batch:
// scores below count fully, equal scores count half.
func (b *Batch) Percentile(score float64) float64 {
	if len(b.raw) == 0 {
		return 50
	}
	var below, equal int
	for _, r := range b.raw {
		switch {
		case r < score:
			below++
		case r == score:
			equal++
		}
	}
	return (float64(below) + 0.5*float64(equal)) / float64(len(b.raw)) * 100
}

// Score maps a raw score to 0-10 by its percentile in the batch.
func (b *Batch) Score(raw float64) float64 {
	if len(b.raw) == 0 {
		return NeutralScore
	}
	return bandScore(b.Percentile(raw))
}

// Normalize scores every member of the batch, in order.
func (b *Batch) Normalize() []float64 {
	out := make([]float64, len(b.raw))
	for i, r := range b.raw {
		out[i] = b.Score(r)
	}
	return out
}

// Normalize maps raw scores to 0-10 relative to each other.
func Normalize(raw []float64) []float64 {
	return NewBatch(raw).Normalize()
}

// bandScore interpolates linearly inside each percentile band:
//
//	[90,100] -> [9,10]
//	[75,90)  -> [7.5,9)
//	[50,75)  -> [5,7.5)
//	[25,50)  -> [2.5,5)
//	[10,25)  -> [1,2.5)
//	[0,10)   -> [0,1)
func bandScore(p float64) float64 {
	var s float64
	switch {
	case p >= 90:
		s = 9 + (p-90)/10
	case p >= 75:
		s = 7.5 + (p-75)/15*1.5
	case p >= 50:
		s = 5 + (p-50)/25*2.5
	case p >= 25:
		s = 2.5 + (p-25)/25*2.5
	case p >= 10:
		s = 1 + (p-10)/15*1.5
	default:
		s = p / 10
	}

	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}
