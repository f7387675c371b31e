package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "virclasp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, core.DefaultSampleNaming(), cfg.Naming())
	assert.Equal(t, 2, cfg.Filter().MinPeptides)
	assert.Equal(t, 0.2, cfg.Aggregator().Trim)
	assert.InDelta(t, math.Log2(5), cfg.Tester().MinLog2Ratio, 1e-12)
	assert.Equal(t, 0.01, cfg.Estimator().Threshold)
	assert.Equal(t, 10.0, cfg.CascadeSettings().MinCoverage)
	assert.Equal(t, []string{"rev_", "DECOY_", "XXX_"}, cfg.CascadeSettings().DecoyPrefixes)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
roles:
  treatment_prefix: pulldown
aggregate:
  trim: 0.1
cascade:
  min_coverage: 20
  decoy_prefixes: [REV_]
workers: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pulldown", cfg.Naming().TreatmentPrefix)
	assert.Equal(t, "control", cfg.Naming().ControlPrefix)
	assert.Equal(t, 0.1, cfg.Aggregator().Trim)
	assert.Equal(t, 1, cfg.Aggregator().MinValues)
	assert.Equal(t, 20.0, cfg.CascadeSettings().MinCoverage)
	assert.Equal(t, []string{"REV_"}, cfg.CascadeSettings().DecoyPrefixes)
	assert.Equal(t, 2, cfg.CascadeSettings().MinPeptides)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"same prefixes", "roles: {treatment_prefix: control}\n", "Config.Roles.TreatmentPrefix"},
		{"negative trim", "aggregate: {trim: -0.1}\n", "Config.Aggregate.Trim"},
		{"zero workers", "workers: 0\n", "Config.Workers"},
		{"control max above treatment min", "semiquant: {treatment_min: 2, control_max: 2}\n", "Config.Semiquant.ControlMax"},
		{"empty decoy prefix", "cascade: {decoy_prefixes: ['']}\n", "Config.Cascade.DecoyPrefixes[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			var schemaErr *core.SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "wrokers: 2\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	cfg, err := Load(writeConfig(t, out))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
