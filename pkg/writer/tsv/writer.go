// Package tsv exports result tables as tab-separated text
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Missing is written for absent values
const Missing = "NA"

// WriteFinal writes one row per protein. Replicate columns follow samples, by name.
func WriteFinal(w io.Writer, samples []string, records []core.FinalRecord) error {
	bw := bufio.NewWriter(w)

	header := []string{"protein_id"}
	header = append(header, samples...)
	header = append(header,
		"mean_log2_ratio", "p_value", "adjusted_p_value",
		"quant_significant", "semiquant_significant", "rbp_datasets")
	if err := writeRow(bw, header); err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		row := []string{r.ProteinID}
		for _, s := range samples {
			row = append(row, formatFloat(r.Ratio(s)))
		}
		row = append(row,
			formatFloat(r.MeanLog2Ratio),
			formatFloat(r.PValue),
			formatFloat(r.AdjustedPValue),
			strconv.FormatBool(r.QuantSignificant),
			strconv.FormatBool(r.SemiquantSignificant),
			strings.Join(r.RBPDatasets, ","),
		)
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush final table: %w", err)
	}
	return nil
}

// WriteAudit writes the cascade audit trail, one stage per row
func WriteAudit(w io.Writer, stages []cascade.StageCount) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, []string{"stage", "before", "after"}); err != nil {
		return err
	}
	for _, s := range stages {
		if err := writeRow(bw, []string{s.Stage, strconv.Itoa(s.Before), strconv.Itoa(s.After)}); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit trail: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, fields []string) error {
	if _, err := w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
