// Package reference loads contaminant lists and RNA-binding protein datasets from CSV
package reference

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Ascano-Lab/virclasp/pkg/reader/peptide"
	ref "github.com/Ascano-Lab/virclasp/pkg/reference"
)

// LoadContaminants reads a contaminant list (format: accession,avg_spectral_count)
func LoadContaminants(r io.Reader) (map[string]float64, error) {
	result := make(map[string]float64)
	err := scanCSV(r, func(lineNum int, parts []string) error {
		acc := peptide.CleanProteinID(parts[0])
		avgStr := strings.TrimSpace(parts[1])

		avg, err := strconv.ParseFloat(avgStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid average spectral count '%s': %w", lineNum, avgStr, err)
		}
		// An accession listed more than once keeps its largest average.
		if prev, ok := result[acc]; !ok || avg > prev {
			result[acc] = avg
		}
		return nil
	})
	return result, err
}

// LoadRBPSets reads RNA-binding protein datasets (format: dataset,accession)
func LoadRBPSets(r io.Reader) (map[string][]string, error) {
	result := make(map[string][]string)
	err := scanCSV(r, func(lineNum int, parts []string) error {
		dataset := strings.TrimSpace(parts[0])
		acc := peptide.CleanProteinID(parts[1])
		if dataset == "" || acc == "" {
			return fmt.Errorf("line %d: empty dataset or accession", lineNum)
		}
		result[dataset] = append(result[dataset], acc)
		return nil
	})
	return result, err
}

// scanCSV skips the header line and hands every non-empty line with at least two fields to fn
func scanCSV(r io.Reader, fn func(lineNum int, parts []string) error) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}
		if err := fn(lineNum, parts); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}
	return nil
}

// Load builds the shared reference from optional contaminant and RBP files.
// Empty paths are skipped.
func Load(contaminantsPath, rbpPath string) (*ref.Reference, error) {
	var contaminants map[string]float64
	var rbp map[string][]string

	if contaminantsPath != "" {
		f, err := os.Open(contaminantsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open contaminant list: %w", err)
		}
		contaminants, err = LoadContaminants(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to load contaminant list %s: %w", contaminantsPath, err)
		}
	}

	if rbpPath != "" {
		f, err := os.Open(rbpPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open RBP datasets: %w", err)
		}
		rbp, err = LoadRBPSets(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to load RBP datasets %s: %w", rbpPath, err)
		}
	}

	return ref.New(contaminants, rbp), nil
}
