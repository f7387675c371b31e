package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/pipeline"
	"github.com/Ascano-Lab/virclasp/pkg/reader/idpicker"
	"github.com/Ascano-Lab/virclasp/pkg/writer/sqlite"
	"github.com/Ascano-Lab/virclasp/pkg/writer/tsv"
)

var cascadeCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Run the replicate filter cascade on an IDPicker report",
	Long: `Filter IDPicker protein reports through identification quality, replicate
presence, contaminant and control-presence stages, and record how many proteins
survive each stage.

Examples:
  virclasp cascade --report proteins.tsv --contaminants crap.csv --out results.db`,
	RunE: runCascade,
}

func runCascade(cmd *cobra.Command, args []string) error {
	if err := checkInput(reportFile); err != nil {
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

	inFile, err := os.Open(reportFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	reports, skipped, err := idpicker.Read(inFile, cfg.Naming())
	inFile.Close()
	if err != nil {
		return fmt.Errorf("failed to read protein report: %w", err)
	}
	for _, e := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipped row: %v\n", e)
	}

	if condition != "" {
		if reports = selectReport(reports, condition); reports == nil {
			return fmt.Errorf("condition %s not found in %s", condition, reportFile)
		}
	}
	if len(reports) == 0 {
		return fmt.Errorf("no conditions to filter in %s", reportFile)
	}

	cfgText, err := cfg.YAML()
	if err != nil {
		return err
	}
	writer, err := sqlite.NewWriter(outputFile, cfgText)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	runner := pipeline.NewRunner(cfg, ref, log)
	failed := 0
	for _, o := range runner.CascadeAll(context.Background(), reports) {
		if o.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Condition %s failed: %v\n", o.Condition, o.Err)
			if err := writer.WriteCascadeFailure(o.Condition); err != nil {
				writer.Close()
				return err
			}
			continue
		}

		if err := writer.WriteCascade(o.Condition, o.Result.Stages); err != nil {
			writer.Close()
			return err
		}
		if err := writeAudit(o.Result); err != nil {
			writer.Close()
			return err
		}

		fmt.Printf("\nCondition %s\n", o.Condition)
		for _, st := range o.Result.Stages {
			fmt.Printf("%-24s %6d -> %6d\n", st.Stage, st.Before, st.After)
		}
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	fmt.Printf("Output: %s\n", outputFile)

	switch {
	case failed > 0:
		return fmt.Errorf("%d of %d conditions failed", failed, len(reports))
	case len(skipped) > 0:
		return fmt.Errorf("%d rows of %s skipped", len(skipped), reportFile)
	}
	return nil
}

func selectReport(reports []*idpicker.Report, name string) []*idpicker.Report {
	for _, rep := range reports {
		if rep.Design.Condition == name {
			return []*idpicker.Report{rep}
		}
	}
	return nil
}

func writeAudit(res *cascade.Result) error {
	if tsvDir == "" {
		return nil
	}
	if err := os.MkdirAll(tsvDir, 0o755); err != nil {
		return fmt.Errorf("failed to create TSV directory: %w", err)
	}
	return writeTSV(filepath.Join(tsvDir, res.Condition+"_cascade.tsv"), func(f io.Writer) error {
		return tsv.WriteAudit(f, res.Stages)
	})
}
