package cli

import (
	"github.com/spf13/cobra"

	"llmgen/internal/config"
)

// addModelFlags registers the flags shared by `run` and `serve`.
func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("model", "", "Model identifier or path (required)")
	f.String("backend", "runner", "Model backend: runner|llama|stub")
	f.String("runner-url", envOr("LLMGEN_RUNNER_URL", ""), "Base URL of the model runner server")
	f.String("runner-api-key", envOr("LLMGEN_RUNNER_API_KEY", ""), "Bearer token for the runner server")
	f.Float64("memory-fraction", 1.0, "Fraction of each device's memory to budget, in (0,1]; 1.0 skips planning")
	f.String("alloc-conf", "", "Allocator configuration applied at startup (empty = default)")
	f.Int("llama-ctx", 2048, "Context size for the in-process llama backend")
	f.Int("llama-threads", 0, "Threads for the in-process llama backend (0 = auto)")

	f.Int("batch-size", 8, "Inputs per generation call")
	f.Int("max-new-tokens", 100, "Maximum number of tokens to generate per input")
	f.Int("min-length", -1, "Minimum total sequence length (-1 = unset)")
	f.Int("num-beams", 1, "Beam width; 1 disables beam search")
	f.Int("num-return-sequences", 1, "Candidate continuations per input")
	f.Bool("greedy", false, "Greedy decoding instead of sampling")
	f.Float64("temperature", 1.0, "Sampling temperature")
	f.Int("top-k", 0, "Top-K sampling cutoff (0 = disabled)")
	f.Float64("top-p", 0.9, "Nucleus sampling probability mass")
	f.Float64("length-penalty", 1.0, "Length penalty for beam search")
	f.Bool("no-early-stop", false, "Disable early stopping")
	f.Int64("seed", 0, "Random seed (0 = backend chooses)")
}

// gatherConfig loads the optional config file and overlays any flags the
// user set explicitly. Flags win over file values; file values win over
// flag defaults.
func gatherConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyStringFlag(cmd, "log-level", &cfg.LogLevel)
	applyFlags(cmd, &cfg)
	if cfg.LogLevel == "" {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	applyStringFlag(cmd, "model", &cfg.Model)
	applyStringFlag(cmd, "backend", &cfg.Backend)
	applyStringFlag(cmd, "runner-url", &cfg.RunnerURL)
	applyStringFlag(cmd, "runner-api-key", &cfg.RunnerAPIKey)
	applyStringFlag(cmd, "alloc-conf", &cfg.AllocConf)
	applyStringFlag(cmd, "input", &cfg.Input)
	applyStringFlag(cmd, "output", &cfg.Output)
	applyStringFlag(cmd, "source-key", &cfg.SourceKey)
	applyStringFlag(cmd, "addr", &cfg.Addr)

	applyIntFlag(cmd, "llama-ctx", &cfg.LlamaCtx)
	applyIntFlag(cmd, "llama-threads", &cfg.LlamaThreads)
	applyIntFlag(cmd, "batch-size", &cfg.BatchSize)
	applyIntFlag(cmd, "max-new-tokens", &cfg.MaxNewTokens)
	applyIntFlag(cmd, "num-beams", &cfg.NumBeams)
	applyIntFlag(cmd, "num-return-sequences", &cfg.NumReturnSequences)
	applyIntFlag(cmd, "top-k", &cfg.TopK)
	applyFloatFlag(cmd, "temperature", &cfg.Temperature)
	applyFloatFlag(cmd, "top-p", &cfg.TopP)
	applyFloatFlag(cmd, "length-penalty", &cfg.LengthPenalty)
	applyFloatFlag(cmd, "memory-fraction", &cfg.MemoryFraction)
	applyBoolFlag(cmd, "greedy", &cfg.Greedy)
	applyBoolFlag(cmd, "no-early-stop", &cfg.NoEarlyStop)

	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("min-length") {
		if v, _ := cmd.Flags().GetInt("min-length"); v >= 0 {
			cfg.MinLength = &v
		}
	}
}

// applyStringFlag overrides on an explicit flag, and fills an empty config
// value from a non-empty flag default.
func applyStringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Lookup(name) == nil {
		return
	}
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) || (*dst == "" && v != "") {
		*dst = v
	}
}

func applyIntFlag(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, dst *float64) {
	if cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func applyBoolFlag(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}
