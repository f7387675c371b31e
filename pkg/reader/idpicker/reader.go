// Package idpicker reads tab-separated IDPicker protein reports
package idpicker

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/reader/peptide"
)

// Required report columns.
const (
	colAccession   = "Accession"
	colDescription = "Description"
	colPeptides    = "Distinct Peptides"
	colCoverage    = "Coverage"
	colSpectra     = "Filtered Spectra"
	colSource      = "Source"
)

// Report is the set of observations of one condition.
type Report struct {
	Design       core.Design
	Observations []core.ProteinObservation
	// Err is the first row error of this condition. A report with Err set must not be filtered.
	Err error
}

// Read parses a whole report and groups its rows by the condition of their source.
// A malformed row fails only the condition of its source. Rows whose source does not
// follow the sample naming convention belong to no condition; they are left out and
// returned as skipped. The error result is reserved for an unreadable report.
func Read(r io.Reader, naming core.SampleNaming) (reports []*Report, skipped []error, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, nil, &core.SchemaError{Field: "header", Message: "protein report is empty"}
	}

	cols, err := parseHeader(strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t"))
	if err != nil {
		return nil, nil, err
	}

	samples := make(map[string]core.Sample)
	byName := make(map[string]*Report)
	lineNum := 1

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		obs, rowErr := parseRow(strings.Split(line, "\t"), cols)
		if obs.Source == "" {
			skipped = append(skipped, fmt.Errorf("line %d: empty source", lineNum))
			continue
		}

		sample, ok := samples[obs.Source]
		if !ok {
			sample, err = naming.Parse(obs.Source)
			if err != nil {
				skipped = append(skipped, fmt.Errorf("line %d: %w", lineNum, err))
				continue
			}
			samples[obs.Source] = sample
		}

		rep := byName[sample.Condition]
		if rep == nil {
			rep = &Report{}
			byName[sample.Condition] = rep
		}
		if rowErr != nil {
			if rep.Err == nil {
				rep.Err = fmt.Errorf("line %d: %w", lineNum, rowErr)
			}
			continue
		}
		rep.Observations = append(rep.Observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading protein report: %w", err)
	}

	byCondition := make(map[string][]core.Sample)
	for _, s := range samples {
		byCondition[s.Condition] = append(byCondition[s.Condition], s)
	}

	var conditions []string
	for cond := range byName {
		conditions = append(conditions, cond)
	}
	sort.Strings(conditions)

	reports = make([]*Report, 0, len(conditions))
	for _, cond := range conditions {
		rep := byName[cond]
		rep.Design = core.NewDesign(cond, byCondition[cond])
		reports = append(reports, rep)
	}
	return reports, skipped, nil
}

func parseHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colAccession, colDescription, colPeptides, colCoverage, colSpectra, colSource} {
		if _, ok := cols[required]; !ok {
			return nil, &core.SchemaError{Field: required, Message: "required column missing from protein report"}
		}
	}
	return cols, nil
}

func parseRow(fields []string, cols map[string]int) (core.ProteinObservation, error) {
	field := func(name string) string {
		i := cols[name]
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	obs := core.ProteinObservation{
		Accession:   peptide.CleanProteinID(field(colAccession)),
		Description: field(colDescription),
		Source:      field(colSource),
	}
	if obs.Accession == "" {
		return obs, fmt.Errorf("empty accession")
	}
	if obs.Source == "" {
		return obs, fmt.Errorf("empty source for %s", obs.Accession)
	}

	var err error
	if obs.DistinctPeptides, err = parseCount(field(colPeptides)); err != nil {
		return obs, fmt.Errorf("invalid distinct peptides '%s': %w", field(colPeptides), err)
	}
	if obs.FilteredSpectra, err = parseCount(field(colSpectra)); err != nil {
		return obs, fmt.Errorf("invalid filtered spectra '%s': %w", field(colSpectra), err)
	}

	cov := strings.TrimSuffix(field(colCoverage), "%")
	if cov != "" {
		if obs.CoveragePercent, err = strconv.ParseFloat(strings.TrimSpace(cov), 64); err != nil {
			return obs, fmt.Errorf("invalid coverage '%s': %w", field(colCoverage), err)
		}
	}
	return obs, nil
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
