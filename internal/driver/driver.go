// Package driver runs the generation pipeline end to end: load a backend
// under a device memory plan, walk the input set in batches, and emit one
// grouped result per input. It plays the coordination role; all decoding
// decisions live in internal/generate.
package driver

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"llmgen/internal/dataset"
	"llmgen/internal/generate"
)

// Totals aggregates diagnostics across a whole run.
type Totals struct {
	Batches   int
	Inputs    int
	NewTokens int
	Elapsed   time.Duration
}

// Run drives generation over all inputs in batches of the configured size.
// The final batch may be short; the orchestrator derives the actual batch
// size from the tokenized shape. A failing batch aborts the run: there is no
// partial-batch recovery, a batch either fully succeeds or fully fails.
func Run(ctx context.Context, orch *generate.Orchestrator, inputs []string, w *dataset.Writer, log zerolog.Logger) (Totals, error) {
	batchSize := orch.Config().BatchSize
	var totals Totals
	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := inputs[start:end]

		groups, stats, err := orch.GenerateBatch(ctx, batch)
		if err != nil {
			return totals, err
		}
		for i, outputs := range groups {
			rec := dataset.Record{ID: start + i, Source: batch[i], Outputs: outputs}
			if err := w.Write(rec); err != nil {
				return totals, err
			}
		}
		totals.Batches++
		totals.Inputs += stats.BatchSize
		totals.NewTokens += stats.NewTokens
		totals.Elapsed += stats.Elapsed

		log.Debug().
			Int("batch", totals.Batches).
			Int("done", end).
			Int("total", len(inputs)).
			Msg("batch complete")
	}
	log.Info().
		Int("batches", totals.Batches).
		Int("inputs", totals.Inputs).
		Int("new_tokens", totals.NewTokens).
		Dur("elapsed", totals.Elapsed).
		Msg("run complete")
	return totals, nil
}
