package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ascano-Lab/virclasp/pkg/cascade"
	"github.com/Ascano-Lab/virclasp/pkg/core"
	"github.com/Ascano-Lab/virclasp/pkg/reader/idpicker"
)

// RunBatch runs every dataset with at most workers conditions in flight.
// Results keep the order of datasets. One condition failing, even by panicking,
// leaves the others untouched.
func (r *Runner) RunBatch(ctx context.Context, datasets []*core.Dataset, workers int) []*ConditionResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]*ConditionResult, len(datasets))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, ds := range datasets {
		i, ds := i, ds
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					r.log.Error("condition panicked",
						zap.String("condition", ds.Design.Condition),
						zap.Any("panic", p))
					results[i] = &ConditionResult{
						Condition: ds.Design.Condition,
						Err:       fmt.Errorf("condition %s panicked: %v", ds.Design.Condition, p),
					}
				}
			}()
			results[i] = r.Run(ctx, ds)
			return nil
		})
	}
	_ = g.Wait()

	r.log.Info("batch complete",
		zap.Int("conditions", len(results)),
		zap.Int("failed", len(Failed(results))))
	return results
}

// Failed returns the results whose condition produced nothing.
func Failed(results []*ConditionResult) []*ConditionResult {
	var out []*ConditionResult
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// CascadeOutcome is the cascade of one condition of a protein report.
type CascadeOutcome struct {
	Condition string
	Result    *cascade.Result
	Err       error
}

// CascadeAll runs the filter cascade over every report in order. A report that
// failed to parse or whose cascade fails gets an error outcome and the rest still run.
func (r *Runner) CascadeAll(ctx context.Context, reports []*idpicker.Report) []*CascadeOutcome {
	out := make([]*CascadeOutcome, 0, len(reports))
	failed := 0
	for _, rep := range reports {
		o := &CascadeOutcome{Condition: rep.Design.Condition}
		if rep.Err != nil {
			o.Err = fmt.Errorf("cascade %s: %w", o.Condition, rep.Err)
		} else {
			o.Result, o.Err = r.Cascade(ctx, rep.Design, rep.Observations)
		}
		if o.Err != nil {
			failed++
			r.log.Error("cascade failed", zap.String("condition", o.Condition), zap.Error(o.Err))
		}
		out = append(out, o)
	}

	r.log.Info("cascade complete",
		zap.Int("conditions", len(out)),
		zap.Int("failed", failed))
	return out
}
