// Package merge joins the quantitative and semi-quantitative calls into one record per protein.
package merge

import (
	"sort"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Inputs are the three tables joined on protein id.
type Inputs struct {
	Samples   []string // Replicate sample names, in output order
	Ratios    []core.ProteinRatio
	Quant     []core.SignificanceCall
	Semiquant []core.ProteinSigCall
}

// Merge full-outer-joins the inputs. Every protein present in any input yields exactly
// one record; fields of an input that lacks the protein stay absent. Quantitative
// significance is cleared for any protein missing a replicate ratio.
func Merge(in Inputs) []core.FinalRecord {
	records := make(map[string]*core.FinalRecord)
	get := func(id string) *core.FinalRecord {
		r, ok := records[id]
		if !ok {
			r = &core.FinalRecord{ProteinID: id, Replicates: emptyReplicates(in.Samples)}
			records[id] = r
		}
		return r
	}

	col := make(map[string]int, len(in.Samples))
	for i, s := range in.Samples {
		col[s] = i
	}
	for _, pr := range in.Ratios {
		c, ok := col[pr.Sample]
		if !ok {
			continue
		}
		v := pr.Log2Ratio
		get(pr.ProteinID).Replicates[c].Log2Ratio = &v
	}

	for _, call := range in.Quant {
		r := get(call.ProteinID)
		r.MeanLog2Ratio = core.Float(call.MeanLog2Ratio)
		r.PValue = core.Float(call.PValue)
		r.AdjustedPValue = core.Float(call.AdjustedPValue)
		r.QuantSignificant = call.IsSignificant
	}

	for _, call := range in.Semiquant {
		get(call.ProteinID).SemiquantSignificant = call.Significant
	}

	out := make([]core.FinalRecord, 0, len(records))
	for _, r := range records {
		if !r.Complete() {
			r.QuantSignificant = false
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProteinID < out[j].ProteinID
	})
	return out
}

func emptyReplicates(samples []string) []core.ReplicateRatio {
	reps := make([]core.ReplicateRatio, len(samples))
	for i, s := range samples {
		reps[i].Sample = s
	}
	return reps
}
