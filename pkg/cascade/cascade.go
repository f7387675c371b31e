// Package cascade implements the multi-replicate protein filter applied to IDPicker reports.
//
// Each stage strictly narrows the protein set and records the distinct protein count
// before and after it, so the full flow can be audited.
package cascade

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/reference"
)

// Stage names, in execution order.
const (
	StageIdentification = "F0 identification"
	StageReplicates     = "F1 replicate presence"
	StageContaminants   = "F2 contaminants"
	StageControls       = "F3 control presence"
)

// Config holds cascade thresholds
type Config struct {
	DecoyPrefixes          []string // Accessions with any of these prefixes are decoys
	MinPeptides            int      // Distinct peptides required per observation
	MinCoverage            float64  // Sequence coverage (percent) required per observation
	MinReplicates          int      // Treatment replicates a protein must appear in (0 = N-1)
	ContaminantMinAvgCount float64  // Contaminants at or above this average count are excluded
}

// DefaultConfig returns the thresholds of the IDPicker pulldown analysis.
func DefaultConfig() Config {
	return Config{
		DecoyPrefixes:          []string{"rev_", "DECOY_", "XXX_"},
		MinPeptides:            2,
		MinCoverage:            10,
		ContaminantMinAvgCount: 2,
	}
}

// StageCount is one line of the audit trail.
type StageCount struct {
	Stage  string
	Before int
	After  int
}

// Result is the outcome of a cascade run.
type Result struct {
	Condition string
	Proteins  []string // Surviving accessions, sorted
	Stages    []StageCount
	// Descriptions maps surviving accessions to their report description.
	Descriptions map[string]string
}

// requiredReplicates resolves MinReplicates against the number of treatment replicates.
func (c *Config) requiredReplicates(n int) int {
	if c.MinReplicates > 0 {
		return c.MinReplicates
	}
	if n <= 1 {
		return 1
	}
	return n - 1
}

func (c *Config) isDecoy(accession string) bool {
	for _, p := range c.DecoyPrefixes {
		if p != "" && strings.HasPrefix(accession, p) {
			return true
		}
	}
	return false
}

// Run applies F0..F3 to the observations of one condition. Observations whose source is
// not a sample of the design are a schema error.
func (c *Config) Run(design core.Design, obs []core.ProteinObservation, ref *reference.Reference) (*Result, error) {
	if err := design.Validate(); err != nil {
		return nil, err
	}
	for _, o := range obs {
		if _, ok := design.Lookup(o.Source); !ok {
			return nil, &core.SchemaError{
				Field:   o.Source,
				Message: fmt.Sprintf("source is not a sample of condition %s", design.Condition),
			}
		}
	}

	res := &Result{Condition: design.Condition, Descriptions: make(map[string]string)}

	// F0: identification quality, per observation.
	current := distinct(obs)
	var kept []core.ProteinObservation
	for _, o := range obs {
		if c.isDecoy(o.Accession) || o.DistinctPeptides < c.MinPeptides || o.CoveragePercent < c.MinCoverage {
			continue
		}
		kept = append(kept, o)
	}
	next := distinct(kept)
	res.record(StageIdentification, current, next)
	current = next

	presence := presenceByRole(design, kept)

	// F1: present in enough treatment replicates.
	need := c.requiredReplicates(len(design.Treatments()))
	next = current.filter(func(acc string) bool {
		return presence[acc][core.RoleTreatment] >= need
	})
	res.record(StageReplicates, current, next)
	current = next

	// F2: known contaminants.
	next = current.filter(func(acc string) bool {
		return !ref.IsContaminant(acc, c.ContaminantMinAvgCount)
	})
	res.record(StageContaminants, current, next)
	current = next

	// F3: present in every control replicate.
	controls := len(design.Controls())
	next = current.filter(func(acc string) bool {
		return presence[acc][core.RoleControl] < controls
	})
	res.record(StageControls, current, next)

	res.Proteins = next.sorted()
	for _, o := range kept {
		if next[o.Accession] && res.Descriptions[o.Accession] == "" {
			res.Descriptions[o.Accession] = o.Description
		}
	}
	return res, nil
}

func (r *Result) record(stage string, before, after proteinSet) {
	r.Stages = append(r.Stages, StageCount{Stage: stage, Before: len(before), After: len(after)})
}

type proteinSet map[string]bool

func distinct(obs []core.ProteinObservation) proteinSet {
	s := make(proteinSet)
	for _, o := range obs {
		s[o.Accession] = true
	}
	return s
}

func (s proteinSet) filter(keep func(string) bool) proteinSet {
	out := make(proteinSet, len(s))
	for acc := range s {
		if keep(acc) {
			out[acc] = true
		}
	}
	return out
}

func (s proteinSet) sorted() []string {
	out := make([]string, 0, len(s))
	for acc := range s {
		out = append(out, acc)
	}
	sort.Strings(out)
	return out
}

// presenceByRole counts, per accession, the distinct samples of each role with a positive spectral count.
func presenceByRole(design core.Design, obs []core.ProteinObservation) map[string]map[core.Role]int {
	seen := make(map[string]map[string]bool)
	for _, o := range obs {
		if o.FilteredSpectra <= 0 {
			continue
		}
		if seen[o.Accession] == nil {
			seen[o.Accession] = make(map[string]bool)
		}
		seen[o.Accession][o.Source] = true
	}

	out := make(map[string]map[core.Role]int, len(seen))
	for acc, sources := range seen {
		out[acc] = make(map[core.Role]int)
		for src := range sources {
			s, _ := design.Lookup(src)
			out[acc][s.Role]++
		}
	}
	return out
}
