package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ascano-Lab/virclasp/pkg/reader/peptide"
	"github.com/Ascano-Lab/virclasp/pkg/writer/sqlite"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a peptide table and its sample design",
	Long: `Validate that a peptide intensity table has the expected columns, that every sample
name follows the configured naming convention, and that every condition has at least
one treatment and one control replicate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		datasets, err := peptide.ReadDatasets(f, cfg.Naming())
		if err != nil {
			return err
		}

		invalid := 0
		for _, ds := range datasets {
			if err := ds.Validate(); err != nil {
				invalid++
				fmt.Fprintf(os.Stderr, "%s: %v\n", ds.Design.Condition, err)
				continue
			}
			fmt.Printf("%s: %d treatment, %d control, %d peptides, %d proteins\n",
				ds.Design.Condition, len(ds.Design.Treatments()), len(ds.Design.Controls()),
				len(ds.Peptides), ds.ProteinCount())
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d conditions in %s are invalid", invalid, len(datasets), args[0])
		}
		fmt.Printf("%s is valid\n", args[0])
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a results database",
	Long:  `Print per-condition counts of significant proteins, known RBPs among them, empty FDR cells and cascade stages.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkInput(args[0]); err != nil {
			return err
		}
		s, err := sqlite.Summarize(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Runs: %d\n", s.Runs)
		for _, c := range s.Conditions {
			fmt.Printf("\nCondition %s", c.Condition)
			if c.Status != "" {
				fmt.Printf(" (%s)", c.Status)
			}
			fmt.Println()
			if c.Error != "" {
				fmt.Printf("  Error: %s\n", c.Error)
			}
			if c.Proteins > 0 {
				fmt.Printf("  Proteins: %d\n", c.Proteins)
				fmt.Printf("  Quantitative significant: %d\n", c.QuantSignificant)
				fmt.Printf("  Semi-quantitative significant: %d\n", c.SemiquantSignificant)
				fmt.Printf("  Significant by both: %d\n", c.BothSignificant)
				fmt.Printf("  Known RBPs among significant: %d\n", c.KnownRBPs)
				fmt.Printf("  Empty candidate cells: %d\n", c.DegenerateCells)
			}
			for _, st := range c.Stages {
				fmt.Printf("  %-24s %6d -> %6d\n", st.Stage, st.Before, st.After)
			}
		}
		return nil
	},
}
