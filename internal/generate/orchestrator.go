package generate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"llmgen/internal/backend"
)

// Stats reports the diagnostics of one generation call.
type Stats struct {
	// BatchSize is the actual batch dimension of the tokenized input. It may
	// legitimately be smaller than the configured batch size for the final
	// batch of a run.
	BatchSize int
	// NewTokens counts tokens produced past the prompt across all returned
	// sequences, used purely for throughput reporting.
	NewTokens int
	Elapsed   time.Duration
}

// TokensPerSecond returns the generation throughput, 0 for an instant call.
func (s Stats) TokensPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.NewTokens) / s.Elapsed.Seconds()
}

// Orchestrator drives one generation call at a time against a loaded
// backend: tokenize, generate, decode, reshape. It owns the intermediate
// token matrices for the duration of a call and keeps no state across
// batches; the config is validated once at construction and read-only after.
type Orchestrator struct {
	b   backend.Backend
	cfg DecodingConfig
	log zerolog.Logger
}

// NewOrchestrator validates cfg and binds it to a loaded backend.
func NewOrchestrator(b backend.Backend, cfg DecodingConfig, log zerolog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{b: b, cfg: cfg, log: log}, nil
}

// Config returns the validated decoding configuration.
func (o *Orchestrator) Config() DecodingConfig { return o.cfg }

// GenerateBatch runs one generation call for the given inputs and returns
// the per-input groups of decoded continuations.
//
// Tokenization uses left padding: generation continues from the right edge
// of each sequence, so pad tokens must not sit there. Backend failures are
// fatal for the batch and propagate wrapped in a BackendError; there is no
// retry and no automatic batch-size backoff.
func (o *Orchestrator) GenerateBatch(ctx context.Context, inputs []string) ([][]string, Stats, error) {
	enc, err := o.b.Tokenize(ctx, inputs, backend.PadLeft)
	if err != nil {
		batchFailuresTotal.WithLabelValues("tokenize").Inc()
		return nil, Stats{}, BackendError{Op: "tokenize", Err: err}
	}
	// Actual batch size comes from the tokenized shape, not the config: the
	// caller may pass a short final batch.
	curBatch := enc.Rows()

	params := backend.Params{
		MaxNewTokens:       o.cfg.MaxNewTokens,
		MinLength:          o.cfg.MinLength,
		NumBeams:           o.cfg.NumBeams,
		NumReturnSequences: o.cfg.NumReturnSequences,
		EarlyStopping:      !o.cfg.NoEarlyStop,
		DoSample:           o.cfg.DoSample,
		Temperature:        o.cfg.Temperature,
		TopK:               o.cfg.TopK,
		TopP:               o.cfg.TopP,
		LengthPenalty:      o.cfg.LengthPenalty,
		Seed:               o.cfg.Seed,
	}

	start := time.Now()
	out, err := o.b.Generate(ctx, enc, params)
	elapsed := time.Since(start)
	if err != nil {
		batchFailuresTotal.WithLabelValues("generate").Inc()
		return nil, Stats{}, BackendError{Op: "generate", Err: err}
	}

	stats := Stats{
		BatchSize: curBatch,
		NewTokens: (out.Cols() - enc.Cols()) * out.Rows(),
		Elapsed:   elapsed,
	}
	o.log.Info().
		Int("new_tokens", stats.NewTokens).
		Int("batch_size", curBatch).
		Dur("elapsed", elapsed).
		Float64("tokens_per_sec", stats.TokensPerSecond()).
		Msg("generated batch")

	decoded, err := o.b.Decode(ctx, out, true)
	if err != nil {
		batchFailuresTotal.WithLabelValues("decode").Inc()
		return nil, Stats{}, BackendError{Op: "decode", Err: err}
	}

	groups, err := Reshape(decoded, curBatch)
	if err != nil {
		batchFailuresTotal.WithLabelValues("reshape").Inc()
		return nil, Stats{}, err
	}

	batchesTotal.Inc()
	generatedTokensTotal.Add(float64(stats.NewTokens))
	generationDuration.Observe(elapsed.Seconds())
	return groups, stats, nil
}
