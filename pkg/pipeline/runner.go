// Package pipeline runs the statistical pipeline over the conditions of an experiment.
//
// For each condition the filtered peptides feed two independent branches: ratios are
// aggregated per protein and tested with a moderated t-test, and detection patterns
// are tallied into a count matrix whose candidate cells get an empirical FDR. Both
// branches are then merged into one record per protein and annotated against the
// reference RBP datasets.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/config"
	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/filter"
	"github.com/Ascano-Lab/virclasp/pkg/merge"
	"github.com/Ascano-Lab/virclasp/pkg/quant"
	"github.com/Ascano-Lab/virclasp/pkg/reference"
	"github.com/Ascano-Lab/virclasp/pkg/semiquant"
)

// ConditionResult is everything produced for one condition.
type ConditionResult struct {
	Condition   string
	Samples     []string // Treatment replicates, in record order
	Peptides    int      // Peptides left after filtering
	Records     []core.FinalRecord
	CountMatrix []core.CountCell
	FDR         []core.FDRPoint

	// QuantErr is set when only the quantitative branch failed. Records then carry
	// ratios and semi-quantitative calls but no p-values.
	QuantErr error
	// Err is set when the condition produced nothing.
	Err error
}

// Significant counts the records called by the t-test and by the count matrix.
func (r *ConditionResult) Significant() (quantSig, semiSig int) {
	for _, rec := range r.Records {
		if rec.QuantSignificant {
			quantSig++
		}
		if rec.SemiquantSignificant {
			semiSig++
		}
	}
	return quantSig, semiSig
}

// Runner holds the settings and the shared reference data of a run.
// It is safe for concurrent use.
type Runner struct {
	filter     filter.Config
	aggregator quant.Aggregator
	tester     quant.Tester
	estimator  semiquant.Estimator
	cascade    cascade.Config
	ref        *reference.Reference
	log        *zap.Logger
}

// NewRunner creates a runner. A nil reference behaves as an empty one.
func NewRunner(cfg *config.Config, ref *reference.Reference, log *zap.Logger) *Runner {
	if ref == nil {
		ref = reference.Empty()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		filter:     cfg.Filter(),
		aggregator: cfg.Aggregator(),
		tester:     cfg.Tester(),
		estimator:  cfg.Estimator(),
		cascade:    cfg.CascadeSettings(),
		ref:        ref,
		log:        log,
	}
}

// Run processes one condition. Failures are reported in the result, never returned,
// so that callers can keep going with other conditions.
func (r *Runner) Run(ctx context.Context, ds *core.Dataset) *ConditionResult {
	res := &ConditionResult{Condition: ds.Design.Condition}
	log := r.log.With(zap.String("condition", res.Condition))

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := ds.Validate(); err != nil {
		res.Err = err
		log.Error("invalid dataset", zap.Error(err))
		return res
	}

	res.Samples = ds.Design.TreatmentNames()
	filtered := r.filter.Apply(ds)
	res.Peptides = len(filtered.Peptides)
	log.Info("filtered peptides",
		zap.Int("before", len(ds.Peptides)),
		zap.Int("after", res.Peptides),
		zap.Int("proteins", filtered.ProteinCount()))

	// Quantitative branch
	ratios := r.aggregator.Aggregate(quant.Ratios(filtered))
	calls, err := r.tester.Test(res.Condition, quant.Widen(ratios, res.Samples))
	if err != nil {
		res.QuantErr = err
		log.Warn("moderated t-test skipped", zap.Error(err))
	}

	// Semi-quantitative branch
	matrix := semiquant.Build(filtered)
	res.CountMatrix = matrix.Cells()
	res.FDR = r.estimator.Estimate(matrix)
	for _, p := range res.FDR {
		if _, err := p.Value(); err != nil {
			log.Debug("no FDR for candidate cell",
				zap.Int("treatment", p.Cell.TreatmentCount),
				zap.Int("control", p.Cell.ControlCount),
				zap.Error(err))
		}
	}
	protCalls := semiquant.Rollup(r.estimator.Call(matrix, res.FDR))

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Records = r.ref.Annotate(merge.Merge(merge.Inputs{
		Samples:   res.Samples,
		Ratios:    ratios,
		Quant:     calls,
		Semiquant: protCalls,
	}))

	quantSig, semiSig := res.Significant()
	log.Info("condition complete",
		zap.Int("proteins", len(res.Records)),
		zap.Int("quant_significant", quantSig),
		zap.Int("semiquant_significant", semiSig),
		zap.Int("empty_candidate_cells", len(semiquant.DegenerateCells(res.FDR))))
	return res
}

// Cascade runs the IDPicker filter cascade for one condition.
func (r *Runner) Cascade(ctx context.Context, design core.Design, obs []core.ProteinObservation) (*cascade.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := r.cascade.Run(design, obs, r.ref)
	if err != nil {
		return nil, fmt.Errorf("cascade %s: %w", design.Condition, err)
	}
	for _, st := range res.Stages {
		r.log.Info("cascade stage",
			zap.String("condition", design.Condition),
			zap.String("stage", st.Stage),
			zap.Int("before", st.Before),
			zap.Int("after", st.After))
	}
	return res, nil
}
