// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ascano-Lab/virclasp/pkg/config"
	readref "github.com/Ascano-Lab/virclasp/pkg/reader/reference"
	"github.com/Ascano-Lab/virclasp/pkg/reference"
)

var (
	// Shared flags
	configFile       string
	contaminantsFile string
	rbpFile          string
	verbose          bool

	// Flags for run, batch and cascade commands
	peptideFile string
	reportFile  string
	condition   string
	outputFile  string
	tsvDir      string
	workers     int
)

var rootCmd = &cobra.Command{
	Use:   "virclasp",
	Short: "VIR-CLASP - pulldown proteomics significance pipeline",
	Long: `virclasp calls proteins enriched in VIR-CLASP RNA pulldowns relative to controls.

Each condition of a peptide intensity table goes through:
- Peptide filtering (distinct peptides per protein)
- Trimmed-mean log2 ratios and a moderated t-test
- A detection count matrix with empirical FDR per enrichment cell
- Merging of both calls and annotation against known RBP datasets

IDPicker protein reports run through a separate replicate filter cascade.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(cascadeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "YAML configuration file (defaults if not specified)")
	pf.StringVar(&contaminantsFile, "contaminants", "", "Contaminant list CSV (accession,avg_spectral_count)")
	pf.StringVar(&rbpFile, "rbp", "", "Known RBP datasets CSV (dataset,accession)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose development logging")

	for _, c := range []*cobra.Command{runCmd, batchCmd} {
		c.Flags().StringVarP(&peptideFile, "peptides", "i", "", "Peptide intensity table (required)")
		c.Flags().StringVarP(&outputFile, "out", "o", "", "Output results database (required)")
		c.Flags().StringVar(&tsvDir, "tsv", "", "Also write final tables as TSV into this directory")
		c.MarkFlagRequired("peptides")
		c.MarkFlagRequired("out")
	}
	runCmd.Flags().StringVar(&condition, "condition", "", "Condition to run (required)")
	runCmd.MarkFlagRequired("condition")
	batchCmd.Flags().IntVar(&workers, "workers", 1, "Conditions processed in parallel (overrides config)")

	cascadeCmd.Flags().StringVarP(&reportFile, "report", "i", "", "IDPicker protein report (required)")
	cascadeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output results database (required)")
	cascadeCmd.Flags().StringVar(&tsvDir, "tsv", "", "Also write audit trails as TSV into this directory")
	cascadeCmd.Flags().StringVar(&condition, "condition", "", "Only run this condition")
	cascadeCmd.MarkFlagRequired("report")
	cascadeCmd.MarkFlagRequired("out")
}

// loadConfig reads the configuration and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers = workers
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadReference loads the shared contaminant and RBP lists once per process
func loadReference() (*reference.Reference, error) {
	ref, err := readref.Load(contaminantsFile, rbpFile)
	if err != nil {
		return nil, err
	}
	if contaminantsFile != "" || rbpFile != "" {
		fmt.Printf("Loaded %d contaminants and %d RBP datasets\n", ref.Contaminants(0), len(ref.Datasets()))
	}
	return ref, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func checkInput(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	return nil
}
