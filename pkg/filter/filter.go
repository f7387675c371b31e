// Package filter provides peptide-level filtering ahead of ratio and count-matrix computation
package filter

import (
	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Config holds peptide filtering configuration
type Config struct {
	MinPeptides int // Keep only proteins supported by at least this many distinct sequences
}

// DefaultConfig returns the filter settings used for VIR-CLASP pulldowns.
func DefaultConfig() Config {
	return Config{MinPeptides: 2}
}

// Apply applies all configured filters to a dataset and returns the filtered copy.
// The input dataset is left untouched.
func (c *Config) Apply(ds *core.Dataset) *core.Dataset {
	out := &core.Dataset{
		Design:   ds.Design,
		Peptides: RemoveUnquantified(ds),
	}

	if c.MinPeptides > 1 {
		out.Peptides = c.filterByPeptideCount(out.Peptides)
	}

	return out
}

// filterByPeptideCount keeps only proteins with at least MinPeptides distinct sequences
func (c *Config) filterByPeptideCount(peptides []core.PeptideRecord) []core.PeptideRecord {
	sequences := make(map[string]map[string]bool)
	for _, p := range peptides {
		if sequences[p.ProteinID] == nil {
			sequences[p.ProteinID] = make(map[string]bool)
		}
		sequences[p.ProteinID][p.Sequence] = true
	}

	var filtered []core.PeptideRecord
	for _, p := range peptides {
		if len(sequences[p.ProteinID]) >= c.MinPeptides {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// RemoveUnquantified drops peptides whose mean intensity across all samples is undefined
func RemoveUnquantified(ds *core.Dataset) []core.PeptideRecord {
	var filtered []core.PeptideRecord
	for _, p := range ds.Peptides {
		if p.MeanIntensity(ds.Design.Samples) != nil {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
