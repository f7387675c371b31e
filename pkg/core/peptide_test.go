package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDesign() Design {
	return NewDesign("A", []Sample{
		{Name: "A_treatment1", Condition: "A", Role: RoleTreatment, Replicate: 1},
		{Name: "A_treatment2", Condition: "A", Role: RoleTreatment, Replicate: 2},
		{Name: "A_control1", Condition: "A", Role: RoleControl, Replicate: 1},
		{Name: "A_control2", Condition: "A", Role: RoleControl, Replicate: 2},
	})
}

func TestPeptideIntensity(t *testing.T) {
	p := PeptideRecord{
		Sequence:  "PEPTIDE",
		ProteinID: "P1",
		Intensities: map[string]float64{
			"A_treatment1": 10,
			"A_treatment2": 0,
			"A_control1":   math.NaN(),
			"A_control2":   -3,
		},
	}

	v, ok := p.Intensity("A_treatment1")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	for _, name := range []string{"A_treatment2", "A_control1", "A_control2", "absent"} {
		_, ok := p.Intensity(name)
		assert.False(t, ok, name)
	}

	d := testDesign()
	assert.Equal(t, 1, p.Detections(d.Treatments()))
	assert.Equal(t, 0, p.Detections(d.Controls()))
	assert.Nil(t, p.MeanIntensity(d.Controls()))
	require.NotNil(t, p.MeanIntensity(d.Samples))
	assert.Equal(t, 10.0, *p.MeanIntensity(d.Samples))
}

func TestDatasetValidate(t *testing.T) {
	ds := &Dataset{
		Design: testDesign(),
		Peptides: []PeptideRecord{
			{Sequence: "AAA", ProteinID: "P1", Intensities: map[string]float64{"A_treatment1": 1}},
			{Sequence: "CCC", ProteinID: "P1", Intensities: map[string]float64{"B_treatment1": 1}},
		},
	}

	err := ds.Validate()
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Message, "B_treatment1")

	ds.Peptides = ds.Peptides[:1]
	assert.NoError(t, ds.Validate())
	assert.Equal(t, 1, ds.ProteinCount())
}

func TestFitErrorUnwraps(t *testing.T) {
	err := error(&FitError{Condition: "A", CompleteRows: 1, Required: 2})
	assert.True(t, errors.Is(err, ErrInsufficientSamples))
}

func TestFinalRecordComplete(t *testing.T) {
	r := FinalRecord{
		ProteinID: "P1",
		Replicates: []ReplicateRatio{
			{Sample: "A_treatment1", Log2Ratio: Float(1)},
			{Sample: "A_treatment2"},
		},
	}
	assert.False(t, r.Complete())
	assert.Nil(t, r.Ratio("A_treatment2"))
	assert.Equal(t, 1.0, *r.Ratio("A_treatment1"))

	r.Replicates[1].Log2Ratio = Float(2)
	assert.True(t, r.Complete())
	assert.False(t, (&FinalRecord{}).Complete())
}

func TestFDRPointValue(t *testing.T) {
	_, err := FDRPoint{}.Value()
	assert.ErrorIs(t, err, ErrDegenerateCell)

	v, err := FDRPoint{FDR: Float(0.25)}.Value()
	assert.NoError(t, err)
	assert.Equal(t, 0.25, v)
}
