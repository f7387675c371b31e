package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/pipeline"
	"github.com/Ascano-Lab/virclasp/pkg/reader/peptide"
	"github.com/Ascano-Lab/virclasp/pkg/writer/sqlite"
	"github.com/Ascano-Lab/virclasp/pkg/writer/tsv"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for one condition",
	Long: `Run the quantitative and semi-quantitative pipeline for a single condition of a
peptide intensity table. Rerunning a condition into the same database replaces its results.

Examples:
  # Run the 24h condition
  virclasp run --peptides peptides.tsv --condition 24h --out results.db

  # Annotate against known RBPs and export the final table
  virclasp run --peptides peptides.tsv --condition 24h --out results.db --rbp rbp.csv --tsv out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, condition)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for every condition",
	Long: `Run every condition of a peptide intensity table. Conditions are independent:
one failing condition is recorded in the database and never stops the others.

Examples:
  virclasp batch --peptides peptides.tsv --out results.db --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "")
	},
}

// runPipeline runs all conditions, or only the named one
func runPipeline(cmd *cobra.Command, only string) error {
	if err := checkInput(peptideFile); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ref, err := loadReference()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	inFile, err := os.Open(peptideFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	datasets, err := peptide.ReadDatasets(inFile, cfg.Naming())
	inFile.Close()
	if err != nil {
		return fmt.Errorf("failed to read peptide table: %w", err)
	}

	if only != "" {
		datasets, err = selectCondition(datasets, only)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Running %d condition(s) from %s...\n", len(datasets), peptideFile)

	runner := pipeline.NewRunner(cfg, ref, log)
	results := runner.RunBatch(context.Background(), datasets, cfg.Workers)

	cfgText, err := cfg.YAML()
	if err != nil {
		return err
	}
	writer, err := sqlite.NewWriter(outputFile, cfgText)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	for _, res := range results {
		if err := writeResult(writer, res); err != nil {
			writer.Close()
			return err
		}
		printResult(res)
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	fmt.Printf("Output: %s\n", outputFile)

	if failed := pipeline.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d conditions failed", len(failed), len(results))
	}
	return nil
}

func selectCondition(datasets []*core.Dataset, name string) ([]*core.Dataset, error) {
	for _, ds := range datasets {
		if ds.Design.Condition == name {
			return []*core.Dataset{ds}, nil
		}
	}
	return nil, fmt.Errorf("condition %s not found in %s", name, peptideFile)
}

func writeResult(w *sqlite.Writer, res *pipeline.ConditionResult) error {
	if err := w.WriteStatus(res.Condition, res.QuantErr, res.Err); err != nil {
		return err
	}
	if res.Err != nil {
		return nil
	}
	if err := w.WriteRecords(res.Condition, res.Records); err != nil {
		return err
	}
	if err := w.WriteCountMatrix(res.Condition, res.CountMatrix); err != nil {
		return err
	}
	if err := w.WriteFDR(res.Condition, res.FDR); err != nil {
		return err
	}

	if tsvDir == "" {
		return nil
	}
	if err := os.MkdirAll(tsvDir, 0o755); err != nil {
		return fmt.Errorf("failed to create TSV directory: %w", err)
	}
	return writeTSV(filepath.Join(tsvDir, res.Condition+"_final.tsv"), func(f io.Writer) error {
		return tsv.WriteFinal(f, res.Samples, res.Records)
	})
}

// writeTSV creates path and fills it with write. A failed close is reported like a failed write.
func writeTSV(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func printResult(res *pipeline.ConditionResult) {
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "Condition %s failed: %v\n", res.Condition, res.Err)
		return
	}
	quantSig, semiSig := res.Significant()
	fmt.Printf("\nCondition %s\n", res.Condition)
	fmt.Printf("Peptides: %d\n", res.Peptides)
	fmt.Printf("Proteins: %d\n", len(res.Records))
	if res.QuantErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: moderated t-test skipped: %v\n", res.QuantErr)
	} else {
		fmt.Printf("Quantitative significant: %d\n", quantSig)
	}
	fmt.Printf("Semi-quantitative significant: %d\n", semiSig)
}
