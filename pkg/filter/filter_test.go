package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

func design() core.Design {
	return core.NewDesign("A", []core.Sample{
		{Name: "A_treatment1", Condition: "A", Role: core.RoleTreatment, Replicate: 1},
		{Name: "A_treatment2", Condition: "A", Role: core.RoleTreatment, Replicate: 2},
		{Name: "A_control1", Condition: "A", Role: core.RoleControl, Replicate: 1},
		{Name: "A_control2", Condition: "A", Role: core.RoleControl, Replicate: 2},
	})
}

func pep(seq, protein string, t1, t2, c1, c2 float64) core.PeptideRecord {
	in := make(map[string]float64)
	for name, v := range map[string]float64{
		"A_treatment1": t1, "A_treatment2": t2, "A_control1": c1, "A_control2": c2,
	} {
		if v > 0 {
			in[name] = v
		}
	}
	return core.PeptideRecord{Sequence: seq, ProteinID: protein, Intensities: in}
}

func sequences(ds *core.Dataset) []string {
	var out []string
	for _, p := range ds.Peptides {
		out = append(out, p.ProteinID+":"+p.Sequence)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		peptides []core.PeptideRecord
		want     []string
	}{
		{
			name:     "empty input",
			peptides: nil,
			want:     nil,
		},
		{
			name: "single-peptide protein dropped after removing unquantified row",
			peptides: []core.PeptideRecord{
				pep("AAAK", "P1", 10, 12, 5, 5),
				pep("CCCK", "P1", 10, 12, 5, 5),
				pep("DDDK", "P1", 10, 12, 5, 5),
				pep("EEEK", "P1", 10, 12, 5, 5),
				pep("FFFK", "P2", 3, 0, 0, 0),
				pep("GGGK", "P2", 0, 0, 0, 0),
			},
			want: []string{"P1:AAAK", "P1:CCCK", "P1:DDDK", "P1:EEEK"},
		},
		{
			name: "two distinct peptides are enough",
			peptides: []core.PeptideRecord{
				pep("AAAK", "P3", 0, 0, 1, 0),
				pep("CCCK", "P3", 1, 0, 0, 0),
				pep("AAAK", "P4", 1, 1, 1, 1),
			},
			want: []string{"P3:AAAK", "P3:CCCK"},
		},
	}

	cfg := DefaultConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &core.Dataset{Design: design(), Peptides: tt.peptides}
			got := cfg.Apply(in)
			assert.Equal(t, tt.want, sequences(got))
			assert.Len(t, in.Peptides, len(tt.peptides), "input must not be modified")
		})
	}
}

func TestApplyWithoutPeptideThreshold(t *testing.T) {
	cfg := Config{MinPeptides: 1}
	in := &core.Dataset{Design: design(), Peptides: []core.PeptideRecord{
		pep("AAAK", "P4", 1, 1, 1, 1),
		pep("CCCK", "P5", 0, 0, 0, 0),
	}}
	assert.Equal(t, []string{"P4:AAAK"}, sequences(cfg.Apply(in)))
}
