package types

// GenerateRequest is the payload for POST /generate. Omitted decoding
// parameters fall back to the server's configured defaults.
type GenerateRequest struct {
	// Input texts to generate continuations for. Required, non-empty.
	// example: ["The quick brown fox"]
	Inputs []string `json:"inputs"`
	// Maximum number of new tokens to generate past each prompt.
	// example: 100
	MaxNewTokens int `json:"max_new_tokens,omitempty" example:"100"`
	// Minimum total sequence length, if set.
	// example: 10
	MinLength *int `json:"min_length,omitempty" example:"10"`
	// Beam width; 1 disables beam search.
	// example: 4
	NumBeams int `json:"num_beams,omitempty" example:"4"`
	// Number of candidate continuations per input.
	// example: 2
	NumReturnSequences int `json:"num_return_sequences,omitempty" example:"2"`
	// Disable early stopping during beam search.
	// example: false
	NoEarlyStop bool `json:"no_early_stop,omitempty" example:"false"`
	// Sample instead of greedy decoding. Omitted means the server default.
	// example: true
	DoSample *bool `json:"do_sample,omitempty" example:"true"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Top-K sampling: limit candidates to the K most likely tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Nucleus sampling probability mass.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Length penalty applied during beam search.
	// example: 1.0
	LengthPenalty float64 `json:"length_penalty,omitempty" example:"1.0"`
	// Random seed for reproducibility; 0 or omitted lets the backend choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
}

// Usage summarizes one generation call for throughput reporting.
type Usage struct {
	// Number of newly generated tokens across all returned sequences.
	// example: 600
	NewTokens int `json:"new_tokens" example:"600"`
	// Wall-clock generation time in milliseconds.
	// example: 1500
	ElapsedMs int64 `json:"elapsed_ms" example:"1500"`
	// Actual batch size used for the call.
	// example: 3
	BatchSize int `json:"batch_size" example:"3"`
	// Generation throughput.
	// example: 400
	TokensPerSecond float64 `json:"tokens_per_second" example:"400"`
}

// GenerateResponse is returned by POST /generate: one group of generated
// continuations per input, in input order.
type GenerateResponse struct {
	Groups [][]string `json:"groups"`
	Usage  Usage      `json:"usage"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Identifier of the loaded model.
	// example: bigscience/bloom-7b1
	Model string `json:"model" example:"bigscience/bloom-7b1"`
	// Backend kind serving the model (runner, llama, stub).
	// example: runner
	Backend string `json:"backend" example:"runner"`
	// Approximate resident model size in bytes, 0 if unknown.
	// example: 7516192768
	FootprintBytes int64 `json:"footprint_bytes" example:"7516192768"`
	// Per-device memory plan in whole GiB, absent when the backend used its
	// default placement.
	MemoryPlan map[string]int `json:"memory_plan,omitempty"`
	// Total generation batches served.
	// example: 12
	BatchesTotal uint64 `json:"batches_total" example:"12"`
	// Total newly generated tokens served.
	// example: 48000
	TokensTotal uint64 `json:"tokens_total" example:"48000"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
