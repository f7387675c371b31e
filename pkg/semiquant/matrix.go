// Package semiquant implements the presence/absence arm of the enrichment pipeline:
// the detection count matrix, its empirical FDR estimator and the protein rollup.
package semiquant

import (
	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Matrix tallies peptides by the number of treatment and control replicates that detected them.
// Every cell of the grid 0..MaxTreatment x 0..MaxControl exists, with zero occupancy when unobserved.
type Matrix struct {
	MaxTreatment int
	MaxControl   int

	occupancy [][]int
	peptides  []PeptidePattern
}

// PeptidePattern is the detection pattern of a single peptide.
type PeptidePattern struct {
	Sequence  string
	ProteinID string
	Cell      core.Cell
}

// Build tallies every peptide of the dataset into the full count grid.
func Build(ds *core.Dataset) *Matrix {
	treatments := ds.Design.Treatments()
	controls := ds.Design.Controls()

	m := &Matrix{
		MaxTreatment: len(treatments),
		MaxControl:   len(controls),
		occupancy:    make([][]int, len(treatments)+1),
		peptides:     make([]PeptidePattern, 0, len(ds.Peptides)),
	}
	for t := range m.occupancy {
		m.occupancy[t] = make([]int, len(controls)+1)
	}

	for i := range ds.Peptides {
		p := &ds.Peptides[i]
		cell := core.Cell{
			TreatmentCount: p.Detections(treatments),
			ControlCount:   p.Detections(controls),
		}
		m.occupancy[cell.TreatmentCount][cell.ControlCount]++
		m.peptides = append(m.peptides, PeptidePattern{
			Sequence:  p.Sequence,
			ProteinID: p.ProteinID,
			Cell:      cell,
		})
	}
	return m
}

// Contains reports whether a cell lies on the grid.
func (m *Matrix) Contains(c core.Cell) bool {
	return c.TreatmentCount >= 0 && c.TreatmentCount <= m.MaxTreatment &&
		c.ControlCount >= 0 && c.ControlCount <= m.MaxControl
}

// Occupancy returns the number of peptides in a cell; cells off the grid are empty.
func (m *Matrix) Occupancy(c core.Cell) int {
	if !m.Contains(c) {
		return 0
	}
	return m.occupancy[c.TreatmentCount][c.ControlCount]
}

// Cells returns the full grid in treatment-major order, including empty cells.
func (m *Matrix) Cells() []core.CountCell {
	cells := make([]core.CountCell, 0, (m.MaxTreatment+1)*(m.MaxControl+1))
	for t := 0; t <= m.MaxTreatment; t++ {
		for c := 0; c <= m.MaxControl; c++ {
			cells = append(cells, core.CountCell{
				TreatmentCount: t,
				ControlCount:   c,
				Occupancy:      m.occupancy[t][c],
			})
		}
	}
	return cells
}

// Total returns the number of peptides tallied.
func (m *Matrix) Total() int {
	return len(m.peptides)
}

// Peptides returns the detection pattern of every tallied peptide in input order.
func (m *Matrix) Peptides() []PeptidePattern {
	return m.peptides
}
