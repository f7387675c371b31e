// Package reference holds read-only reference data shared by every pipeline run:
// the contaminant list and compiled RNA-binding protein datasets.
package reference

import (
	"sort"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Reference is immutable after construction and safe for concurrent use.
type Reference struct {
	contaminants map[string]float64
	rbp          map[string]map[string]bool // accession -> dataset set
	datasets     []string
}

// New copies the given contaminant averages (accession -> average spectral count)
// and RBP datasets (dataset -> accessions) into a Reference.
func New(contaminants map[string]float64, rbpSets map[string][]string) *Reference {
	r := &Reference{
		contaminants: make(map[string]float64, len(contaminants)),
		rbp:          make(map[string]map[string]bool),
	}
	for acc, avg := range contaminants {
		r.contaminants[acc] = avg
	}
	for dataset, accessions := range rbpSets {
		r.datasets = append(r.datasets, dataset)
		for _, acc := range accessions {
			if r.rbp[acc] == nil {
				r.rbp[acc] = make(map[string]bool)
			}
			r.rbp[acc][dataset] = true
		}
	}
	sort.Strings(r.datasets)
	return r
}

// Empty returns a Reference with no contaminants and no RBP datasets.
func Empty() *Reference {
	return New(nil, nil)
}

// IsContaminant reports whether an accession is listed with an average spectral
// count of at least minAvg.
func (r *Reference) IsContaminant(accession string, minAvg float64) bool {
	if r == nil {
		return false
	}
	avg, ok := r.contaminants[accession]
	return ok && avg >= minAvg
}

// Contaminants returns the number of listed contaminants at or above minAvg.
func (r *Reference) Contaminants(minAvg float64) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, avg := range r.contaminants {
		if avg >= minAvg {
			n++
		}
	}
	return n
}

// Datasets returns the names of the RBP datasets, sorted.
func (r *Reference) Datasets() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.datasets...)
}

// RBPDatasets returns the sorted names of the datasets listing an accession.
func (r *Reference) RBPDatasets(accession string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for d := range r.rbp[accession] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Annotate returns a copy of the records with their RBP dataset memberships filled in.
func (r *Reference) Annotate(records []core.FinalRecord) []core.FinalRecord {
	out := make([]core.FinalRecord, len(records))
	for i, rec := range records {
		rec.RBPDatasets = r.RBPDatasets(rec.ProteinID)
		out[i] = rec
	}
	return out
}
