package quant

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Ascano-Lab/virclasp/pkg/core"
)

// Row is one protein of a ratio matrix. Values are parallel to Matrix.Samples.
type Row struct {
	ProteinID string
	Values    []*float64
}

// Matrix is a protein x replicate table of log2 ratios addressed by sample name.
type Matrix struct {
	Samples []string
	Rows    []Row
}

// Widen reshapes protein ratios into a matrix with one column per named sample.
// Ratios for samples not listed are ignored. Rows are ordered by protein id.
func Widen(ratios []core.ProteinRatio, samples []string) *Matrix {
	col := make(map[string]int, len(samples))
	for i, s := range samples {
		col[s] = i
	}

	index := make(map[string]int)
	m := &Matrix{Samples: append([]string(nil), samples...)}
	for _, r := range ratios {
		c, ok := col[r.Sample]
		if !ok {
			continue
		}
		i, ok := index[r.ProteinID]
		if !ok {
			i = len(m.Rows)
			index[r.ProteinID] = i
			m.Rows = append(m.Rows, Row{ProteinID: r.ProteinID, Values: make([]*float64, len(samples))})
		}
		v := r.Log2Ratio
		m.Rows[i].Values[c] = &v
	}

	sort.Slice(m.Rows, func(i, j int) bool {
		return m.Rows[i].ProteinID < m.Rows[j].ProteinID
	})
	return m
}

// Value returns the ratio of a protein row for a named sample.
func (m *Matrix) Value(row int, sample string) *float64 {
	for c, s := range m.Samples {
		if s == sample {
			return m.Rows[row].Values[c]
		}
	}
	return nil
}

// Replicates returns the named replicate values of a row.
func (m *Matrix) Replicates(row int) []core.ReplicateRatio {
	out := make([]core.ReplicateRatio, len(m.Samples))
	for c, s := range m.Samples {
		out[c] = core.ReplicateRatio{Sample: s, Log2Ratio: m.Rows[row].Values[c]}
	}
	return out
}

// Tester runs a one-sample moderated t-test of mean log2 ratio against zero.
type Tester struct {
	AdjPThreshold float64 // Benjamini-Hochberg adjusted p-value must fall below this
	MinLog2Ratio  float64 // Mean log2 ratio must exceed this
}

// DefaultTester returns adj.P < 0.01 and mean log2 ratio > log2(5).
func DefaultTester() Tester {
	return Tester{AdjPThreshold: 0.01, MinLog2Ratio: math.Log2(5)}
}

// minCompleteRows is the number of rows with residual degrees of freedom needed to
// estimate the prior variance distribution.
const minCompleteRows = 2

type rowFit struct {
	n    int
	mean float64
	s2   float64
	df   float64
}

// Test fits the per-protein model with empirical Bayes variance shrinkage and returns
// one call per protein with at least one value, in matrix order.
func (t Tester) Test(condition string, m *Matrix) ([]core.SignificanceCall, error) {
	fits := make([]rowFit, len(m.Rows))
	rows := make([]int, 0, len(m.Rows))
	var s2s, dfs []float64
	dfPooled := 0.0

	for i, row := range m.Rows {
		var values []float64
		for _, v := range row.Values {
			if v != nil && !math.IsNaN(*v) {
				values = append(values, *v)
			}
		}
		if len(values) == 0 {
			continue
		}
		f := rowFit{n: len(values), mean: stat.Mean(values, nil)}
		if f.n > 1 {
			f.s2 = stat.Variance(values, nil)
			f.df = float64(f.n - 1)
			s2s = append(s2s, f.s2)
			dfs = append(dfs, f.df)
			dfPooled += f.df
		}
		fits[i] = f
		rows = append(rows, i)
	}

	if len(s2s) < minCompleteRows {
		return nil, &core.FitError{Condition: condition, CompleteRows: len(s2s), Required: minCompleteRows}
	}

	d0, s0sq := fitFDist(s2s, dfs)

	calls := make([]core.SignificanceCall, 0, len(rows))
	pvalues := make([]float64, 0, len(rows))
	for _, i := range rows {
		f := fits[i]

		s2post := s0sq
		if !math.IsInf(d0, 1) {
			s2post = (d0*s0sq + f.df*f.s2) / (d0 + f.df)
		}
		dfTotal := math.Min(f.df+d0, dfPooled)

		tstat := f.mean / math.Sqrt(s2post/float64(f.n))
		p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfTotal}.CDF(-math.Abs(tstat))

		calls = append(calls, core.SignificanceCall{
			ProteinID:     m.Rows[i].ProteinID,
			Replicates:    m.Replicates(i),
			MeanLog2Ratio: f.mean,
			TStatistic:    tstat,
			DF:            dfTotal,
			PValue:        p,
		})
		pvalues = append(pvalues, p)
	}

	adjusted := AdjustBH(pvalues)
	for i := range calls {
		calls[i].AdjustedPValue = adjusted[i]
		calls[i].IsSignificant = adjusted[i] < t.AdjPThreshold && calls[i].MeanLog2Ratio > t.MinLog2Ratio
	}
	return calls, nil
}

// fitFDist estimates the prior degrees of freedom d0 and scale s0² of the sample
// variances by matching moments of log(s²), which follows a scaled F distribution.
func fitFDist(s2 []float64, df []float64) (d0, s0sq float64) {
	x := make([]float64, len(s2))
	for i, v := range s2 {
		x[i] = math.Max(v, 0)
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	m := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		m = (sorted[len(sorted)/2-1] + m) / 2
	}
	if m == 0 {
		m = 1
	}

	e := make([]float64, len(x))
	meanTri := 0.0
	for i := range x {
		z := math.Log(math.Max(x[i], 1e-5*m))
		e[i] = z - mathext.Digamma(df[i]/2) + math.Log(df[i]/2)
		meanTri += trigamma(df[i] / 2)
	}
	meanTri /= float64(len(x))

	emean := stat.Mean(e, nil)
	evar := stat.Variance(e, nil) - meanTri

	if evar > 0 {
		d0 = 2 * trigammaInverse(evar)
		s0sq = math.Exp(emean + mathext.Digamma(d0/2) - math.Log(d0/2))
		return d0, s0sq
	}
	return math.Inf(1), math.Exp(emean)
}

// AdjustBH returns Benjamini-Hochberg adjusted p-values in input order.
func AdjustBH(p []float64) []float64 {
	n := len(p)
	adj := make([]float64, n)
	if n == 0 {
		return adj
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p[order[a]] > p[order[b]]
	})

	cummin := 1.0
	for k, i := range order {
		rank := float64(n - k)
		v := p[i] * float64(n) / rank
		if v < cummin {
			cummin = v
		}
		adj[i] = cummin
	}
	return adj
}
