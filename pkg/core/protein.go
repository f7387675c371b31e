package core

// SampleRatio is the log2 ratio of one peptide's treatment intensity to its control average.
// Log2Ratio is nil when either side is missing or non-positive.
type SampleRatio struct {
	Sequence  string
	ProteinID string
	Sample    string
	Log2Ratio *float64
}

// ProteinRatio is the trimmed-mean log2 ratio of a protein in one sample.
type ProteinRatio struct {
	ProteinID string
	Sample    string
	Log2Ratio float64
}

// ReplicateRatio is a named replicate value; Log2Ratio is nil when the replicate has no ratio.
type ReplicateRatio struct {
	Sample    string
	Log2Ratio *float64
}

// SignificanceCall is the moderated t-test result for one protein.
type SignificanceCall struct {
	ProteinID      string
	Replicates     []ReplicateRatio
	MeanLog2Ratio  float64
	TStatistic     float64
	DF             float64
	PValue         float64
	AdjustedPValue float64
	IsSignificant  bool
}

// CountCell is one cell of the detection count matrix.
type CountCell struct {
	TreatmentCount int
	ControlCount   int
	Occupancy      int
}

// Cell addresses a count matrix cell.
type Cell struct {
	TreatmentCount int
	ControlCount   int
}

// FDRPoint is the empirical FDR of a candidate cell. FDR is nil when the
// candidate cell is empty.
type FDRPoint struct {
	Cell     Cell
	NullCell Cell
	FDR      *float64
}

// Degenerate reports whether the FDR could not be computed.
func (f FDRPoint) Degenerate() bool {
	return f.FDR == nil
}

// Value returns the FDR, or ErrDegenerateCell when the candidate cell is empty.
func (f FDRPoint) Value() (float64, error) {
	if f.FDR == nil {
		return 0, ErrDegenerateCell
	}
	return *f.FDR, nil
}

// PeptideSigCall is the semi-quantitative call for one peptide.
type PeptideSigCall struct {
	Sequence    string
	ProteinID   string
	Cell        Cell
	Significant bool
}

// ProteinSigCall is the semi-quantitative call for one protein.
type ProteinSigCall struct {
	ProteinID   string
	Peptides    int
	Significant bool
}

// FinalRecord is the merged per-protein result.
type FinalRecord struct {
	ProteinID            string
	Replicates           []ReplicateRatio
	MeanLog2Ratio        *float64
	PValue               *float64
	AdjustedPValue       *float64
	QuantSignificant     bool
	SemiquantSignificant bool
	RBPDatasets          []string
}

// Ratio returns the log2 ratio of a replicate by sample name.
func (r *FinalRecord) Ratio(sample string) *float64 {
	for _, rep := range r.Replicates {
		if rep.Sample == sample {
			return rep.Log2Ratio
		}
	}
	return nil
}

// Complete reports whether every replicate carries a ratio.
func (r *FinalRecord) Complete() bool {
	if len(r.Replicates) == 0 {
		return false
	}
	for _, rep := range r.Replicates {
		if rep.Log2Ratio == nil {
			return false
		}
	}
	return true
}

// ProteinObservation is one row of an IDPicker protein report: a protein seen in one source file.
type ProteinObservation struct {
	Accession        string
	Description      string
	DistinctPeptides int
	CoveragePercent  float64
	FilteredSpectra  int
	Source           string
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
