// Package config loads and validates pipeline settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/filter"
	"github.com/Ascano-Lab/virclasp/pkg/quant"
	"github.com/Ascano-Lab/virclasp/pkg/semiquant"
)

// Config is the full set of pipeline settings.
type Config struct {
	Roles         RolesConfig         `yaml:"roles"`
	PeptideFilter PeptideFilterConfig `yaml:"peptide_filter"`
	Aggregate     AggregateConfig     `yaml:"aggregate"`
	Quant         QuantConfig         `yaml:"quant"`
	Semiquant     SemiquantConfig     `yaml:"semiquant"`
	Cascade       CascadeConfig       `yaml:"cascade"`

	// Workers is the number of conditions processed in parallel.
	Workers int `yaml:"workers" validate:"gte=1"`
}

// RolesConfig names the sample-name prefixes of each role.
type RolesConfig struct {
	TreatmentPrefix string `yaml:"treatment_prefix" validate:"required,nefield=ControlPrefix"`
	ControlPrefix   string `yaml:"control_prefix" validate:"required"`
}

// PeptideFilterConfig holds the peptide filter settings.
type PeptideFilterConfig struct {
	MinPeptides int `yaml:"min_peptides" validate:"gte=1"`
}

// AggregateConfig holds the trimmed-mean settings.
type AggregateConfig struct {
	Trim      float64 `yaml:"trim" validate:"gte=0,lte=0.5"`
	MinValues int     `yaml:"min_values" validate:"gte=1"`
}

// QuantConfig holds the moderated t-test thresholds.
type QuantConfig struct {
	AdjPThreshold float64 `yaml:"adj_p_threshold" validate:"gt=0,lte=1"`
	MinLog2Ratio  float64 `yaml:"min_log2_ratio"`
}

// SemiquantConfig holds the count-matrix FDR settings.
type SemiquantConfig struct {
	TreatmentMin int     `yaml:"treatment_min" validate:"gte=1"`
	ControlMax   int     `yaml:"control_max" validate:"gte=0,ltfield=TreatmentMin"`
	FDRThreshold float64 `yaml:"fdr_threshold" validate:"gt=0,lte=1"`
}

// CascadeConfig holds the IDPicker filter cascade settings.
type CascadeConfig struct {
	MinPeptides            int      `yaml:"min_peptides" validate:"gte=0"`
	MinCoverage            float64  `yaml:"min_coverage" validate:"gte=0,lte=100"`
	MinReplicates          int      `yaml:"min_replicates" validate:"gte=0"`
	ContaminantMinAvgCount float64  `yaml:"contaminant_min_avg_count" validate:"gte=0"`
	DecoyPrefixes          []string `yaml:"decoy_prefixes" validate:"dive,required"`
}

// Default returns the settings of the published VIR-CLASP analysis.
func Default() *Config {
	agg := quant.DefaultAggregator()
	test := quant.DefaultTester()
	est := semiquant.DefaultEstimator()
	casc := cascade.DefaultConfig()
	naming := core.DefaultSampleNaming()

	return &Config{
		Roles: RolesConfig{
			TreatmentPrefix: naming.TreatmentPrefix,
			ControlPrefix:   naming.ControlPrefix,
		},
		PeptideFilter: PeptideFilterConfig{MinPeptides: filter.DefaultConfig().MinPeptides},
		Aggregate:     AggregateConfig{Trim: agg.Trim, MinValues: agg.MinValues},
		Quant:         QuantConfig{AdjPThreshold: test.AdjPThreshold, MinLog2Ratio: test.MinLog2Ratio},
		Semiquant: SemiquantConfig{
			TreatmentMin: est.TreatmentMin,
			ControlMax:   est.ControlMax,
			FDRThreshold: est.Threshold,
		},
		Cascade: CascadeConfig{
			MinPeptides:            casc.MinPeptides,
			MinCoverage:            casc.MinCoverage,
			MinReplicates:          casc.MinReplicates,
			ContaminantMinAvgCount: casc.ContaminantMinAvgCount,
			DecoyPrefixes:          casc.DecoyPrefixes,
		},
		Workers: 1,
	}
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto the receiver. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &core.SchemaError{
				Field:   verrs[0].Namespace(),
				Message: fmt.Sprintf("failed %q constraint (value %v)", verrs[0].Tag(), verrs[0].Value()),
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// YAML renders the configuration for storage alongside results.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}

// Naming returns the sample naming convention.
func (c *Config) Naming() core.SampleNaming {
	return core.SampleNaming{TreatmentPrefix: c.Roles.TreatmentPrefix, ControlPrefix: c.Roles.ControlPrefix}
}

// Filter returns the peptide filter settings.
func (c *Config) Filter() filter.Config {
	return filter.Config{MinPeptides: c.PeptideFilter.MinPeptides}
}

// Aggregator returns the trimmed-mean settings.
func (c *Config) Aggregator() quant.Aggregator {
	return quant.Aggregator{Trim: c.Aggregate.Trim, MinValues: c.Aggregate.MinValues}
}

// Tester returns the moderated t-test thresholds.
func (c *Config) Tester() quant.Tester {
	return quant.Tester{AdjPThreshold: c.Quant.AdjPThreshold, MinLog2Ratio: c.Quant.MinLog2Ratio}
}

// Estimator returns the count-matrix FDR settings.
func (c *Config) Estimator() semiquant.Estimator {
	return semiquant.Estimator{
		TreatmentMin: c.Semiquant.TreatmentMin,
		ControlMax:   c.Semiquant.ControlMax,
		Threshold:    c.Semiquant.FDRThreshold,
	}
}

// CascadeSettings returns the filter cascade settings.
func (c *Config) CascadeSettings() cascade.Config {
	return cascade.Config{
		DecoyPrefixes:          append([]string(nil), c.Cascade.DecoyPrefixes...),
		MinPeptides:            c.Cascade.MinPeptides,
		MinCoverage:            c.Cascade.MinCoverage,
		MinReplicates:          c.Cascade.MinReplicates,
		ContaminantMinAvgCount: c.Cascade.ContaminantMinAvgCount,
	}
}
