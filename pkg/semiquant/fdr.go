package semiquant

import (
	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Estimator computes empirical FDRs for candidate enrichment cells of a count matrix.
type Estimator struct {
	TreatmentMin int     // Candidate cells need at least this many treatment detections
	ControlMax   int     // Candidate cells allow at most this many control detections
	Threshold    float64 // Peptides in cells with FDR below this are significant
}

// DefaultEstimator returns candidates treatment >= 2, control <= 1 and an FDR cutoff of 0.01.
func DefaultEstimator() Estimator {
	return Estimator{TreatmentMin: 2, ControlMax: 1, Threshold: 0.01}
}

// Candidate reports whether a cell is in the enrichment region.
func (e Estimator) Candidate(m *Matrix, c core.Cell) bool {
	return m.Contains(c) && c.TreatmentCount >= e.TreatmentMin && c.ControlCount <= e.ControlMax
}

// NullCell returns the cell with treatment and control counts swapped, clamped to the grid.
// For a 3x2 design (3,0) pairs with (0,2) and (2,1) with (1,2).
func NullCell(m *Matrix, c core.Cell) core.Cell {
	return core.Cell{
		TreatmentCount: min(c.ControlCount, m.MaxTreatment),
		ControlCount:   min(c.TreatmentCount, m.MaxControl),
	}
}

// Estimate returns one FDR point per candidate cell, ordered by treatment count
// descending then control count ascending. Empty candidate cells get a nil FDR.
func (e Estimator) Estimate(m *Matrix) []core.FDRPoint {
	var points []core.FDRPoint
	for t := m.MaxTreatment; t >= 0; t-- {
		for c := 0; c <= m.MaxControl; c++ {
			cell := core.Cell{TreatmentCount: t, ControlCount: c}
			if !e.Candidate(m, cell) {
				continue
			}
			null := NullCell(m, cell)
			point := core.FDRPoint{Cell: cell, NullCell: null}
			if denom := m.Occupancy(cell); denom > 0 {
				fdr := float64(m.Occupancy(null)) / float64(denom)
				point.FDR = &fdr
			}
			points = append(points, point)
		}
	}
	return points
}

// Call flags every peptide of the matrix. A peptide is significant only when its cell
// is a candidate with a defined FDR below the threshold.
func (e Estimator) Call(m *Matrix, points []core.FDRPoint) []core.PeptideSigCall {
	significant := make(map[core.Cell]bool, len(points))
	for _, p := range points {
		fdr, err := p.Value()
		significant[p.Cell] = err == nil && fdr < e.Threshold
	}

	calls := make([]core.PeptideSigCall, 0, m.Total())
	for _, p := range m.Peptides() {
		calls = append(calls, core.PeptideSigCall{
			Sequence:    p.Sequence,
			ProteinID:   p.ProteinID,
			Cell:        p.Cell,
			Significant: significant[p.Cell],
		})
	}
	return calls
}

// DegenerateCells returns the candidate cells whose FDR could not be computed.
func DegenerateCells(points []core.FDRPoint) []core.Cell {
	var cells []core.Cell
	for _, p := range points {
		if p.Degenerate() {
			cells = append(cells, p.Cell)
		}
	}
	return cells
}
