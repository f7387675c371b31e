package quant

import (
	"math"
	"sort"

	"github.com/Ascano-Lab/virclasp/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// Aggregator reduces peptide ratios to one trimmed-mean ratio per protein and sample.
type Aggregator struct {
	Trim      float64 // Fraction trimmed from each end of the sorted values
	MinValues int     // Minimum values left after trimming for the aggregate to be defined
}

// DefaultAggregator returns a 20% symmetric trim requiring one remaining value.
func DefaultAggregator() Aggregator {
	return Aggregator{Trim: 0.2, MinValues: 1}
}

// TrimmedMean returns the mean of values after dropping floor(n*trim) values from
// each end of the sorted sample. A trim of 0.5 or more yields the median.
// The second result is false for an empty sample.
func TrimmedMean(values []float64, trim float64) (float64, bool) {
	kept := trimmed(values, trim)
	if len(kept) == 0 {
		return 0, false
	}
	return stat.Mean(kept, nil), true
}

func trimmed(values []float64, trim float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if trim >= 0.5 {
		if n%2 == 1 {
			return sorted[n/2 : n/2+1]
		}
		return sorted[n/2-1 : n/2+1]
	}
	if trim <= 0 {
		return sorted
	}

	lo := int(math.Floor(float64(n) * trim))
	return sorted[lo : n-lo]
}

type groupKey struct {
	protein string
	sample  string
}

// Aggregate groups ratios by (protein, sample) and computes the trimmed mean of the
// defined values. Groups whose aggregate is undefined produce no row. Output is
// ordered by protein then sample.
func (a Aggregator) Aggregate(ratios []core.SampleRatio) []core.ProteinRatio {
	groups := make(map[groupKey][]float64)
	for _, r := range ratios {
		if r.Log2Ratio == nil {
			continue
		}
		k := groupKey{protein: r.ProteinID, sample: r.Sample}
		groups[k] = append(groups[k], *r.Log2Ratio)
	}

	minValues := a.MinValues
	if minValues < 1 {
		minValues = 1
	}

	out := make([]core.ProteinRatio, 0, len(groups))
	for k, values := range groups {
		kept := trimmed(values, a.Trim)
		if len(kept) < minValues {
			continue
		}
		out = append(out, core.ProteinRatio{
			ProteinID: k.protein,
			Sample:    k.sample,
			Log2Ratio: stat.Mean(kept, nil),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProteinID != out[j].ProteinID {
			return out[i].ProteinID < out[j].ProteinID
		}
		return out[i].Sample < out[j].Sample
	})
	return out
}
