// Package quant implements the quantitative arm of the enrichment pipeline:
// peptide log2 ratios, trimmed-mean protein aggregation and the moderated t-test.
package quant

import (
	"math"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// ControlAverage returns the mean of the defined control intensities of a peptide,
// or nil when no control sample has one.
func ControlAverage(p *core.PeptideRecord, controls []core.Sample) *float64 {
	return p.MeanIntensity(controls)
}

// Log2Ratio returns log2(num/den). The ratio is missing (nil) unless both sides are
// defined, finite and positive.
func Log2Ratio(num float64, numOK bool, den *float64) *float64 {
	if !numOK || den == nil || num <= 0 || *den <= 0 {
		return nil
	}
	r := math.Log2(num / *den)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

// Ratios computes one SampleRatio per (peptide, treatment sample) pair.
func Ratios(ds *core.Dataset) []core.SampleRatio {
	treatments := ds.Design.Treatments()
	controls := ds.Design.Controls()

	out := make([]core.SampleRatio, 0, len(ds.Peptides)*len(treatments))
	for i := range ds.Peptides {
		p := &ds.Peptides[i]
		avg := ControlAverage(p, controls)
		for _, s := range treatments {
			v, ok := p.Intensity(s.Name)
			out = append(out, core.SampleRatio{
				Sequence:  p.Sequence,
				ProteinID: p.ProteinID,
				Sample:    s.Name,
				Log2Ratio: Log2Ratio(v, ok, avg),
			})
		}
	}
	return out
}
