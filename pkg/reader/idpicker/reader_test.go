package idpicker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

const report = "Accession\tDescription\tDistinct Peptides\tCoverage\tFiltered Spectra\tSource\n" +
	"sp|P1|A_HUMAN\tAlpha\t3\t25.5%\t10\t24h_treatment1\n" +
	"P1\tAlpha\t2\t12\t4\t24h_control1\n" +
	"P2\tBeta\t1\t\t\t6h_treatment1\n"

func TestRead(t *testing.T) {
	reports, skipped, err := Read(strings.NewReader(report), core.DefaultSampleNaming())
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, reports, 2)
	assert.NoError(t, reports[0].Err)

	assert.Equal(t, "24h", reports[0].Design.Condition)
	assert.Len(t, reports[0].Design.Samples, 2)
	assert.Equal(t, core.ProteinObservation{
		Accession:        "P1",
		Description:      "Alpha",
		DistinctPeptides: 3,
		CoveragePercent:  25.5,
		FilteredSpectra:  10,
		Source:           "24h_treatment1",
	}, reports[0].Observations[0])

	assert.Equal(t, "6h", reports[1].Design.Condition)
	assert.Equal(t, 0, reports[1].Observations[0].FilteredSpectra)
	assert.Equal(t, 0.0, reports[1].Observations[0].CoveragePercent)
}

const header = "Accession\tDescription\tDistinct Peptides\tCoverage\tFiltered Spectra\tSource\n"

func TestReadErrors(t *testing.T) {
	var schemaErr *core.SchemaError

	_, _, err := Read(strings.NewReader("Accession\tDescription\n"), core.DefaultSampleNaming())
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, colPeptides, schemaErr.Field)

	_, _, err = Read(strings.NewReader(""), core.DefaultSampleNaming())
	assert.True(t, errors.As(err, &schemaErr))
}

func TestReadIsolatesBadRows(t *testing.T) {
	in := header +
		"P1\tAlpha\t2\t10\t1\t24h_treatment1\n" +
		"P1\tAlpha\tmany\t10\t1\t6h_treatment1\n" +
		"P2\tBeta\t2\t10\t1\t6h_control1\n" +
		"P3\tGamma\t2\t10\t1\trun_07.idpDB\n" +
		"P4\tDelta\t2\t10\t1\t24h_control1\n"

	reports, skipped, err := Read(strings.NewReader(in), core.DefaultSampleNaming())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	good := reports[0]
	assert.Equal(t, "24h", good.Design.Condition)
	assert.NoError(t, good.Err)
	assert.Len(t, good.Observations, 2)

	bad := reports[1]
	assert.Equal(t, "6h", bad.Design.Condition)
	require.Error(t, bad.Err)
	assert.Contains(t, bad.Err.Error(), "line 3")

	require.Len(t, skipped, 1)
	var schemaErr *core.SchemaError
	assert.True(t, errors.As(skipped[0], &schemaErr))
	assert.Contains(t, skipped[0].Error(), "line 5")
}
