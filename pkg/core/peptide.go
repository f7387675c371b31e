package core

import (
	"fmt"
	"math"
	"strings"
)

// PeptideKey identifies a peptide record.
type PeptideKey struct {
	Sequence  string
	ProteinID string
}

func (k PeptideKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProteinID, k.Sequence)
}

// PeptideRecord holds the intensities measured for one peptide of one protein.
// A sample missing from Intensities has no measurement; zero is never stored.
type PeptideRecord struct {
	Sequence    string
	ProteinID   string
	Intensities map[string]float64
}

// Key returns the identity of the record.
func (p *PeptideRecord) Key() PeptideKey {
	return PeptideKey{Sequence: p.Sequence, ProteinID: p.ProteinID}
}

// Intensity returns the intensity for a sample and whether it is defined and positive.
func (p *PeptideRecord) Intensity(sample string) (float64, bool) {
	v, ok := p.Intensities[sample]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// MeanIntensity returns the mean of the defined intensities over the given samples.
// It returns nil when no sample has a defined intensity.
func (p *PeptideRecord) MeanIntensity(samples []Sample) *float64 {
	sum := 0.0
	n := 0
	for _, s := range samples {
		if v, ok := p.Intensity(s.Name); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// Detections counts the samples of a role with a defined positive intensity.
func (p *PeptideRecord) Detections(samples []Sample) int {
	n := 0
	for _, s := range samples {
		if _, ok := p.Intensity(s.Name); ok {
			n++
		}
	}
	return n
}

// Dataset is the peptide table of a single condition.
type Dataset struct {
	Design   Design
	Peptides []PeptideRecord
}

// Validate checks the design and that every record carries identifiers and only
// intensities for samples of the design.
func (d *Dataset) Validate() error {
	if err := d.Design.Validate(); err != nil {
		return err
	}

	var errs []string
	seen := make(map[PeptideKey]bool)
	for i := range d.Peptides {
		p := &d.Peptides[i]
		if p.Sequence == "" {
			errs = append(errs, fmt.Sprintf("record %d has no sequence", i))
		}
		if p.ProteinID == "" {
			errs = append(errs, fmt.Sprintf("record %d has no protein id", i))
		}
		if seen[p.Key()] {
			errs = append(errs, fmt.Sprintf("duplicate peptide %s", p.Key()))
		}
		seen[p.Key()] = true
		for name := range p.Intensities {
			if _, ok := d.Design.Lookup(name); !ok {
				errs = append(errs, fmt.Sprintf("record %d has intensity for unknown sample %s", i, name))
			}
		}
		if len(errs) > 10 {
			break
		}
	}

	if len(errs) > 0 {
		return &SchemaError{
			Field:   "Dataset " + d.Design.Condition,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// ProteinCount returns the number of distinct proteins in the dataset.
func (d *Dataset) ProteinCount() int {
	proteins := make(map[string]bool)
	for _, p := range d.Peptides {
		proteins[p.ProteinID] = true
	}
	return len(proteins)
}
