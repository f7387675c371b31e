package peptide

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

func TestCleanProteinID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"P12345", "P12345"},
		{"sp|P12345|ABC_HUMAN", "P12345"},
		{"tr|Q9XYZ1|Q9XYZ1_HUMAN;sp|P12345|ABC_HUMAN", "Q9XYZ1"},
		{" P1;P2 ", "P1"},
		{"CON__P02769", "CON__P02769"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanProteinID(tt.in))
		})
	}
}

const table = "Sequence\tProteins\t24h_treatment1\t24h_treatment2\t24h_control1\t24h_control2\t6h_treatment1\t6h_control1\n" +
	"AAAK\tsp|P1|X_HUMAN\t10\t12\t5\t5\t0\tNA\n" +
	"\n" +
	"CCCK\tP1;P9\t\t3.5e2\t0\t\t7\t1\n"

func TestReader(t *testing.T) {
	r, err := NewReader(strings.NewReader(table), core.DefaultSampleNaming())
	require.NoError(t, err)
	require.Len(t, r.Samples(), 6)

	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, "AAAK", rec.Sequence)
	assert.Equal(t, "P1", rec.ProteinID)
	assert.Equal(t, map[string]float64{
		"24h_treatment1": 10, "24h_treatment2": 12, "24h_control1": 5, "24h_control2": 5,
	}, rec.Intensities)

	require.True(t, r.Next())
	rec = r.Record()
	assert.Equal(t, "P1", rec.ProteinID)
	assert.Equal(t, map[string]float64{
		"24h_treatment2": 350, "6h_treatment1": 7, "6h_control1": 1,
	}, rec.Intensities)

	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
}

func TestReaderIntensityPrefix(t *testing.T) {
	in := "Sequence\tLeading razor protein\tScore\tIntensity A_treatment1\tIntensity A_control1\n" +
		"AAAK\tP1\t99\t1\t2\n"
	r, err := NewReader(strings.NewReader(in), core.DefaultSampleNaming())
	require.NoError(t, err)
	require.True(t, r.Next())
	assert.Equal(t, map[string]float64{"A_treatment1": 1, "A_control1": 2}, r.Record().Intensities)
}

func TestReaderSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty", "", "header"},
		{"no protein column", "Sequence\tA_treatment1\n", "header"},
		{"no samples", "Sequence\tProtein\n", "header"},
		{"bad sample name", "Sequence\tProtein\tA_mock1\n", "A_mock1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input), core.DefaultSampleNaming())
			var schemaErr *core.SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestReaderBadIntensity(t *testing.T) {
	in := "Sequence\tProtein\tA_treatment1\nAAAK\tP1\tlots\n"
	r, err := NewReader(strings.NewReader(in), core.DefaultSampleNaming())
	require.NoError(t, err)
	assert.False(t, r.Next())
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "line 2")
}

func TestReadDatasets(t *testing.T) {
	datasets, err := ReadDatasets(strings.NewReader(table), core.DefaultSampleNaming())
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	assert.Equal(t, "24h", datasets[0].Design.Condition)
	assert.Equal(t, []string{"24h_treatment1", "24h_treatment2"}, datasets[0].Design.TreatmentNames())
	require.Len(t, datasets[0].Peptides, 2)
	assert.Equal(t, map[string]float64{"24h_treatment2": 350}, datasets[0].Peptides[1].Intensities)

	assert.Equal(t, "6h", datasets[1].Design.Condition)
	assert.Empty(t, datasets[1].Peptides[0].Intensities)
}

func TestReadDatasetsKeepsValidConditions(t *testing.T) {
	in := "Sequence\tProtein\tA_treatment1\tA_treatment2\tA_control1\tA_control2\tB_treatment1\tB_treatment2\n" +
		"AAAK\tP1\t1\t2\t3\t4\t5\t6\n"
	datasets, err := ReadDatasets(strings.NewReader(in), core.DefaultSampleNaming())
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	assert.Equal(t, "A", datasets[0].Design.Condition)
	assert.NoError(t, datasets[0].Validate())

	assert.Equal(t, "B", datasets[1].Design.Condition)
	var schemaErr *core.SchemaError
	assert.True(t, errors.As(datasets[1].Validate(), &schemaErr))
}
