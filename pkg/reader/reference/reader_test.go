package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadContaminants(t *testing.T) {
	in := "accession,avg_spectral_count\nP02769,12.5\n\nsp|P00761|TRYP_PIG,1.5\nP02769,3\n"
	got, err := LoadContaminants(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"P02769": 12.5, "P00761": 1.5}, got)

	_, err = LoadContaminants(strings.NewReader("h\nP1,high\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = LoadContaminants(strings.NewReader("h\nP1\n"))
	assert.Error(t, err)
}

func TestLoadRBPSets(t *testing.T) {
	in := "dataset,accession\ncastello2012,Q1\nbaltz2012,Q2\ncastello2012,Q2\n"
	got, err := LoadRBPSets(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"castello2012": {"Q1", "Q2"},
		"baltz2012":    {"Q2"},
	}, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cont := filepath.Join(dir, "contaminants.csv")
	rbp := filepath.Join(dir, "rbp.csv")
	require.NoError(t, os.WriteFile(cont, []byte("accession,avg\nBSA,5\n"), 0o644))
	require.NoError(t, os.WriteFile(rbp, []byte("dataset,accession\nset,Q1\n"), 0o644))

	r, err := Load(cont, rbp)
	require.NoError(t, err)
	assert.True(t, r.IsContaminant("BSA", 2))
	assert.Equal(t, []string{"set"}, r.RBPDatasets("Q1"))

	r, err = Load("", "")
	require.NoError(t, err)
	assert.Empty(t, r.Datasets())

	_, err = Load(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}
