package semiquant

import (
	"sort"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Rollup reduces peptide calls to protein calls. A protein is significant only when
// every one of its peptides is. Output is ordered by protein id.
func Rollup(calls []core.PeptideSigCall) []core.ProteinSigCall {
	flags := make(map[string][]bool)
	for _, c := range calls {
		flags[c.ProteinID] = append(flags[c.ProteinID], c.Significant)
	}

	out := make([]core.ProteinSigCall, 0, len(flags))
	for id, f := range flags {
		out = append(out, core.ProteinSigCall{
			ProteinID:   id,
			Peptides:    len(f),
			Significant: AllSignificant(f),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProteinID < out[j].ProteinID
	})
	return out
}

// AllSignificant is the AND over peptide flags; an empty set is not significant.
func AllSignificant(flags []bool) bool {
	if len(flags) == 0 {
		return false
	}
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}
