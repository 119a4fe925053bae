// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/trialscout/internal/ledger"
	"github.com/pdiddy/trialscout/pkg/types"
)

// Run executes the named stages in order (all stages when names is empty),
// recording each in the ledger when one is configured and writing the run
// summary to the output directory. It stops at the first failing stage;
// files written by earlier stages remain.
func Run(ctx context.Context, cfg types.PipelineConfig, deps Deps, names ...string) (Summary, error) {
	cfg = cfg.WithDefaults()
	if len(names) == 0 {
		names = Stages
	}
	funcs := make([]StageFunc, len(names))
	for i, n := range names {
		fn, err := Lookup(n)
		if err != nil {
			return Summary{}, err
		}
		funcs[i] = fn
	}

	sum := Summary{Keyword: cfg.SearchKeyword, OutputDirectory: cfg.OutputDirectory, StartedAt: time.Now().UTC()}
	if deps.Ledger != nil {
		id, err := deps.Ledger.Begin(ctx, cfg.SearchKeyword)
		if err != nil {
			return sum, err
		}
		sum.RunID = id
	}

	runErr := runStages(ctx, cfg, deps, funcs, &sum)
	sum.FinishedAt = time.Now().UTC()
	if runErr != nil {
		sum.Error = runErr.Error()
	}

	if deps.Ledger != nil {
		// The run context may already be cancelled; the ledger must still close the run.
		if err := deps.Ledger.Finish(context.WithoutCancel(ctx), sum.RunID, runErr); err != nil {
			deps.Log.Error().Err(err).Msg("finishing ledger run")
		}
	}
	if err := WriteSummary(SummaryPath(cfg), sum); err != nil {
		deps.Log.Error().Err(err).Msg("writing run summary")
	}
	return sum, runErr
}

func runStages(ctx context.Context, cfg types.PipelineConfig, deps Deps, funcs []StageFunc, sum *Summary) error {
	for _, fn := range funcs {
		started := time.Now().UTC()
		res, err := fn(ctx, cfg, deps)
		res.StartedAt = started
		res.FinishedAt = time.Now().UTC()
		if err != nil {
			res.Error = err.Error()
		}
		sum.Stages = append(sum.Stages, res)

		if deps.Ledger != nil {
			rec := ledger.Stage{
				Name:       res.Name,
				OutputPath: res.OutputPath,
				Rows:       res.Rows,
				Failures:   res.Failures,
				StartedAt:  res.StartedAt,
				FinishedAt: res.FinishedAt,
				Error:      res.Error,
			}
			if lerr := deps.Ledger.RecordStage(context.WithoutCancel(ctx), sum.RunID, rec); lerr != nil {
				deps.Log.Error().Err(lerr).Str("stage", res.Name).Msg("recording stage")
			}
		}

		if err != nil {
			return fmt.Errorf("stage %s: %w", res.Name, err)
		}
		deps.Log.Info().
			Str("stage", res.Name).
			Str("file", res.OutputPath).
			Int("rows", res.Rows).
			Int("skipped", res.Skipped).
			Int("failures", res.Failures).
			Msg("stage complete")
	}
	return nil
}
