package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"llmgen/internal/generate"
	"llmgen/pkg/types"
)

// Service exposes the generation pipeline to the HTTP layer. Generation is
// serialized with a mutex: the pipeline is single-batch by design, and the
// backend owns exclusive accelerator state.
type Service struct {
	mu     sync.Mutex
	loaded *Loaded
	base   generate.DecodingConfig
	log    zerolog.Logger

	started      time.Time
	batchesTotal atomic.Uint64
	tokensTotal  atomic.Uint64
}

// NewService binds a loaded backend and the server's base decoding config.
func NewService(loaded *Loaded, base generate.DecodingConfig, log zerolog.Logger) *Service {
	return &Service{loaded: loaded, base: base, log: log, started: time.Now()}
}

// Generate runs one batch for an API request. Request fields override the
// server's base decoding config; the merged config is validated before any
// backend call.
func (s *Service) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	cfg := mergeRequest(s.base, req)
	// Batch size follows the request payload: the API generates exactly the
	// inputs it was given, in one call.
	if n := len(req.Inputs); n > 0 {
		cfg.BatchSize = n
	}
	orch, err := generate.NewOrchestrator(s.loaded.Backend, cfg, s.log)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	groups, stats, err := orch.GenerateBatch(ctx, req.Inputs)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	s.batchesTotal.Add(1)
	s.tokensTotal.Add(uint64(stats.NewTokens))
	return types.GenerateResponse{
		Groups: groups,
		Usage: types.Usage{
			NewTokens:       stats.NewTokens,
			ElapsedMs:       stats.Elapsed.Milliseconds(),
			BatchSize:       stats.BatchSize,
			TokensPerSecond: stats.TokensPerSecond(),
		},
	}, nil
}

func (s *Service) Status() types.StatusResponse {
	return types.StatusResponse{
		Model:          s.loaded.Model,
		Backend:        s.loaded.Kind,
		FootprintBytes: s.loaded.Backend.MemoryFootprintBytes(),
		MemoryPlan:     s.loaded.Plan,
		BatchesTotal:   s.batchesTotal.Load(),
		TokensTotal:    s.tokensTotal.Load(),
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}

func (s *Service) Ready() bool {
	return s.loaded != nil && s.loaded.Backend != nil
}

// mergeRequest overlays non-zero request fields on the base config.
func mergeRequest(base generate.DecodingConfig, req types.GenerateRequest) generate.DecodingConfig {
	cfg := base
	if req.MaxNewTokens > 0 {
		cfg.MaxNewTokens = req.MaxNewTokens
	}
	if req.MinLength != nil {
		cfg.MinLength = req.MinLength
	}
	if req.NumBeams > 0 {
		cfg.NumBeams = req.NumBeams
	}
	if req.NumReturnSequences > 0 {
		cfg.NumReturnSequences = req.NumReturnSequences
	}
	if req.NoEarlyStop {
		cfg.NoEarlyStop = true
	}
	if req.DoSample != nil {
		cfg.DoSample = *req.DoSample
	}
	if req.Temperature > 0 {
		cfg.Temperature = req.Temperature
	}
	if req.TopK != 0 {
		cfg.TopK = req.TopK
	}
	if req.TopP > 0 {
		cfg.TopP = req.TopP
	}
	if req.LengthPenalty != 0 {
		cfg.LengthPenalty = req.LengthPenalty
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	return cfg
}
