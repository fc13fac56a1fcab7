package generate

// Defaults applied by DefaultDecodingConfig. They mirror the knobs most
// callers leave untouched.
const (
	defaultBatchSize     = 8
	defaultMaxNewTokens  = 100
	defaultTemperature   = 1.0
	defaultTopP          = 0.9
	defaultLengthPenalty = 1.0
)

// DecodingConfig captures every generation parameter passed to the backend.
// Construct with DefaultDecodingConfig, adjust fields, then call Validate
// once; a validated config is treated as read-only for the rest of the run.
type DecodingConfig struct {
	// BatchSize is the number of inputs submitted per generation call.
	BatchSize int
	// DoSample selects stochastic decoding. When false the sampling knobs
	// (Temperature, TopK, TopP) are ignored by the backend but are still
	// allowed to carry their defaults.
	DoSample    bool
	Temperature float64
	// TopK limits sampling to the k most likely tokens; 0 disables it.
	TopK int
	// TopP is the nucleus sampling mass, in (0,1].
	TopP float64
	// NumBeams is the beam width; 1 means no beam search.
	NumBeams int
	// NumReturnSequences is the number of candidate outputs per input.
	NumReturnSequences int
	// MaxNewTokens bounds the number of tokens generated past the prompt.
	MaxNewTokens int
	// MinLength, when non-nil, is the minimum total sequence length.
	MinLength     *int
	LengthPenalty float64
	// NoEarlyStop disables early stopping; the backend receives the negation.
	NoEarlyStop bool
	// MemoryFraction is the share of each device's memory the planner may
	// budget, in (0,1]. 1.0 means no custom planning.
	MemoryFraction float64
	// Seed for reproducibility; 0 lets the backend choose.
	Seed int64
}

// DefaultDecodingConfig returns a config with the standard defaults:
// batch 8, sampling on with top-p 0.9, single beam, one return sequence,
// 100 new tokens, no custom memory planning.
func DefaultDecodingConfig() DecodingConfig {
	return DecodingConfig{
		BatchSize:          defaultBatchSize,
		DoSample:           true,
		Temperature:        defaultTemperature,
		TopK:               0,
		TopP:               defaultTopP,
		NumBeams:           1,
		NumReturnSequences: 1,
		MaxNewTokens:       defaultMaxNewTokens,
		LengthPenalty:      defaultLengthPenalty,
		MemoryFraction:     1.0,
	}
}

// Validate checks the config and returns a ConfigError describing the first
// offending field. It has no side effects.
func (c DecodingConfig) Validate() error {
	if c.BatchSize <= 0 {
		return configErrorf("batch_size", "must be positive, got %d", c.BatchSize)
	}
	if c.NumBeams < 1 {
		return configErrorf("num_beams", "must be >= 1, got %d", c.NumBeams)
	}
	if c.NumReturnSequences < 1 {
		return configErrorf("num_return_sequences", "must be >= 1, got %d", c.NumReturnSequences)
	}
	if c.MaxNewTokens <= 0 {
		return configErrorf("max_new_tokens", "must be positive, got %d", c.MaxNewTokens)
	}
	if c.MinLength != nil && *c.MinLength < 0 {
		return configErrorf("min_length", "must be >= 0, got %d", *c.MinLength)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return configErrorf("top_p", "must be in (0,1], got %v", c.TopP)
	}
	if c.TopK < 0 {
		return configErrorf("top_k", "must be >= 0, got %d", c.TopK)
	}
	if c.DoSample && c.Temperature <= 0 {
		return configErrorf("temperature", "must be positive when sampling, got %v", c.Temperature)
	}
	if c.MemoryFraction <= 0 || c.MemoryFraction > 1 {
		return configErrorf("memory_fraction", "must be in (0,1], got %v", c.MemoryFraction)
	}
	return nil
}
