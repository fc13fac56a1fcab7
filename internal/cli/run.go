package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"llmgen/internal/dataset"
	"llmgen/internal/driver"
	"llmgen/internal/generate"
)

func buildRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate continuations for every source text in the input file",
		Example: `  llmgen run --model bigscience/bloom-7b1 --input data/sources.jsonl --output out.jsonl
  llmgen run --model bloom --num-return-sequences 3 --num-beams 4 --memory-fraction 0.8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gatherConfig(cmd)
			if err != nil {
				return err
			}
			log := setupLogger(cfg.LogLevel)

			if cfg.Input == "" {
				return generate.ConfigError{Field: "input", Reason: "input file is required"}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Allocator tuning is an explicit startup step, before any load.
			if err := driver.ApplyAllocConf(cfg.AllocConf); err != nil {
				return err
			}

			loaded, err := driver.Load(ctx, driver.LoadOptions{
				Model:          cfg.Model,
				Kind:           cfg.Backend,
				RunnerURL:      cfg.RunnerURL,
				RunnerAPIKey:   cfg.RunnerAPIKey,
				MemoryFraction: cfg.Decoding().MemoryFraction,
				LlamaCtx:       cfg.LlamaCtx,
				LlamaThreads:   cfg.LlamaThreads,
			}, log)
			if err != nil {
				return err
			}
			defer func() { _ = loaded.Backend.Close() }()

			orch, err := generate.NewOrchestrator(loaded.Backend, cfg.Decoding(), log)
			if err != nil {
				return err
			}

			inputs, err := dataset.ReadSources(cfg.Input, cfg.SourceKey)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return generate.ConfigError{Field: "input", Reason: "no source texts found in " + cfg.Input}
			}
			log.Info().Int("inputs", len(inputs)).Str("file", cfg.Input).Msg("loaded sources")

			out, err := dataset.OpenOutput(cfg.Output)
			if err != nil {
				return err
			}
			defer func() { _ = out.Close() }()

			_, err = driver.Run(ctx, orch, inputs, dataset.NewWriter(out), log)
			return err
		},
	}
	addModelFlags(cmd)
	cmd.Flags().String("input", "", "Source file: plain text (one per line) or JSONL")
	cmd.Flags().String("output", "-", "Output JSONL file ('-' = stdout)")
	cmd.Flags().String("source-key", dataset.DefaultSourceKey, "JSONL field holding the source text")
	return cmd
}
