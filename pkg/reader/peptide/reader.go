// Package peptide provides streaming readers for tab-separated peptide intensity tables
package peptide

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Column headers recognised for the identifier columns.
var (
	sequenceHeaders = []string{"sequence", "peptide", "peptide sequence"}
	proteinHeaders  = []string{"protein", "proteins", "leading razor protein", "protein id"}
)

// intensityPrefix marks sample columns in MaxQuant-style exports.
const intensityPrefix = "Intensity "

const maxLineBytes = 16 * 1024 * 1024

// Reader provides streaming access to a peptide table
type Reader struct {
	scanner    *bufio.Scanner
	naming     core.SampleNaming
	lineNum    int
	seqCol     int
	protCol    int
	sampleCols map[int]core.Sample
	samples    []core.Sample
	current    *core.PeptideRecord
	err        error
}

// NewReader creates a peptide table reader and parses its header.
// A header without identifier columns or sample columns is a SchemaError.
func NewReader(r io.Reader, naming core.SampleNaming) (*Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	reader := &Reader{
		scanner:    scanner,
		naming:     naming,
		seqCol:     -1,
		protCol:    -1,
		sampleCols: make(map[int]core.Sample),
	}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, &core.SchemaError{Field: "header", Message: "peptide table is empty"}
	}
	reader.lineNum++

	if err := reader.parseHeader(strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")); err != nil {
		return nil, err
	}
	return reader, nil
}

// parseHeader locates identifier and sample columns
func (r *Reader) parseHeader(header []string) error {
	prefixed := false
	for _, h := range header {
		if strings.HasPrefix(strings.TrimSpace(h), intensityPrefix) {
			prefixed = true
			break
		}
	}

	for i, h := range header {
		h = strings.TrimSpace(h)
		lower := strings.ToLower(h)

		switch {
		case r.seqCol < 0 && contains(sequenceHeaders, lower):
			r.seqCol = i
			continue
		case r.protCol < 0 && contains(proteinHeaders, lower):
			r.protCol = i
			continue
		}

		name := h
		if prefixed {
			if !strings.HasPrefix(h, intensityPrefix) {
				continue
			}
			name = strings.TrimSpace(strings.TrimPrefix(h, intensityPrefix))
		}

		sample, err := r.naming.Parse(name)
		if err != nil {
			return err
		}
		r.sampleCols[i] = sample
		r.samples = append(r.samples, sample)
	}

	if r.seqCol < 0 {
		return &core.SchemaError{Field: "header", Message: "no sequence column (expected one of " + strings.Join(sequenceHeaders, ", ") + ")"}
	}
	if r.protCol < 0 {
		return &core.SchemaError{Field: "header", Message: "no protein column (expected one of " + strings.Join(proteinHeaders, ", ") + ")"}
	}
	if len(r.samples) == 0 {
		return &core.SchemaError{Field: "header", Message: "no sample intensity columns"}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Samples returns the sample columns found in the header, in column order.
func (r *Reader) Samples() []core.Sample {
	return append([]core.Sample(nil), r.samples...)
}

// Next advances to the next peptide. Returns false when no more records or error.
func (r *Reader) Next() bool {
	r.current = nil

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := r.parseLine(strings.Split(line, "\t"))
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		r.current = rec
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
	}
	return false
}

// Record returns the current peptide
func (r *Reader) Record() *core.PeptideRecord {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// parseLine converts one row into a record; zero, empty and NA intensities are missing
func (r *Reader) parseLine(fields []string) (*core.PeptideRecord, error) {
	field := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	rec := &core.PeptideRecord{
		Sequence:    field(r.seqCol),
		ProteinID:   CleanProteinID(field(r.protCol)),
		Intensities: make(map[string]float64),
	}
	if rec.Sequence == "" {
		return nil, fmt.Errorf("empty sequence")
	}
	if rec.ProteinID == "" {
		return nil, fmt.Errorf("empty protein id for %s", rec.Sequence)
	}

	for col, sample := range r.sampleCols {
		v, ok, err := parseIntensity(field(col))
		if err != nil {
			return nil, fmt.Errorf("invalid intensity for %s: %w", sample.Name, err)
		}
		if ok {
			rec.Intensities[sample.Name] = v
		}
	}
	return rec, nil
}

// parseIntensity returns the value and whether it counts as a measurement
func parseIntensity(s string) (float64, bool, error) {
	switch strings.ToUpper(s) {
	case "", "NA", "NAN", "NULL", "#N/A":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, nil
	}
	return v, true, nil
}

// CleanProteinID reduces a protein identifier to a bare accession: the first entry of a
// semicolon-separated group, with UniProt "db|ACCESSION|NAME" headers reduced to ACCESSION.
func CleanProteinID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.Index(id, ";"); i >= 0 {
		id = id[:i]
	}
	parts := strings.Split(id, "|")
	if len(parts) >= 2 && parts[1] != "" {
		id = parts[1]
	}
	return strings.TrimSpace(id)
}

// ReadDatasets reads a whole peptide table and splits it into one dataset per condition,
// ordered by condition name. Datasets are not validated here: a malformed condition must
// not hide the others, so each one is checked where it is run.
func ReadDatasets(r io.Reader, naming core.SampleNaming) ([]*core.Dataset, error) {
	reader, err := NewReader(r, naming)
	if err != nil {
		return nil, err
	}

	byCondition := make(map[string][]core.Sample)
	for _, s := range reader.Samples() {
		byCondition[s.Condition] = append(byCondition[s.Condition], s)
	}

	datasets := make(map[string]*core.Dataset, len(byCondition))
	var conditions []string
	for cond, samples := range byCondition {
		datasets[cond] = &core.Dataset{Design: core.NewDesign(cond, samples)}
		conditions = append(conditions, cond)
	}
	sort.Strings(conditions)

	for reader.Next() {
		rec := reader.Record()
		for _, cond := range conditions {
			ds := datasets[cond]
			split := core.PeptideRecord{
				Sequence:    rec.Sequence,
				ProteinID:   rec.ProteinID,
				Intensities: make(map[string]float64),
			}
			for _, s := range ds.Design.Samples {
				if v, ok := rec.Intensities[s.Name]; ok {
					split.Intensities[s.Name] = v
				}
			}
			ds.Peptides = append(ds.Peptides, split)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading peptide table: %w", err)
	}

	out := make([]*core.Dataset, 0, len(conditions))
	for _, cond := range conditions {
		out = append(out, datasets[cond])
	}
	return out, nil
}
