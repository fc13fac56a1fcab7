package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"llmgen/internal/backend"
	"llmgen/internal/device"
	"llmgen/internal/generate"
)

// Backend kinds selectable via configuration.
const (
	KindRunner = "runner"
	KindLlama  = "llama"
	KindStub   = "stub"
)

const (
	defaultRunnerURL      = "http://127.0.0.1:8090"
	defaultReqTimeout     = 10 * time.Minute
	defaultConnectTimeout = 10 * time.Second
)

// LoadOptions selects and parameterizes the model backend.
type LoadOptions struct {
	Model          string
	Kind           string // runner (default), llama, stub
	RunnerURL      string
	RunnerAPIKey   string
	MemoryFraction float64
	// Prober discovers devices; nil means device.Default().
	Prober device.Prober
	// llama.cpp tunables, used by the in-process backend only.
	LlamaCtx     int
	LlamaThreads int
}

// Loaded bundles a ready backend with the placement plan it was given.
type Loaded struct {
	Backend backend.Backend
	Plan    generate.MemoryBudget
	Kind    string
	Model   string
}

// Load probes devices, plans the per-device memory budget, and loads the
// model through the selected backend. Planning happens exactly once here;
// the resulting budget is immutable and shared read-only afterwards.
func Load(ctx context.Context, opts LoadOptions, log zerolog.Logger) (*Loaded, error) {
	if opts.Model == "" {
		return nil, generate.ConfigError{Field: "model", Reason: "model identifier is required"}
	}

	prober := opts.Prober
	if prober == nil {
		prober = device.Default()
	}
	info, err := prober.Probe(ctx)
	if err != nil {
		// An unparseable probe is not fatal: fall back to default placement.
		log.Warn().Err(err).Msg("device probe failed, skipping memory plan")
		info = device.Info{}
	}
	fraction := opts.MemoryFraction
	if fraction == 0 {
		fraction = 1.0
	}
	plan := generate.PlanDeviceMemory(info.Count, fraction, info.TotalGiB)
	if plan != nil {
		log.Info().Interface("max_memory_gib", plan).Int("devices", info.Count).Msg("planned device memory")
	}

	loader, kind, err := selectLoader(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	be, err := loader.Load(ctx, opts.Model, plan)
	if err != nil {
		if backend.IsDependencyUnavailable(err) {
			return nil, err
		}
		return nil, generate.BackendError{Op: "load", Err: err}
	}
	log.Info().
		Str("model", opts.Model).
		Str("backend", kind).
		Dur("elapsed", time.Since(start)).
		Float64("footprint_gib", float64(be.MemoryFootprintBytes())/(1<<30)).
		Msg("loaded model")

	return &Loaded{Backend: be, Plan: plan, Kind: kind, Model: opts.Model}, nil
}

func selectLoader(opts LoadOptions) (backend.Loader, string, error) {
	switch opts.Kind {
	case "", KindRunner:
		url := opts.RunnerURL
		if url == "" {
			url = defaultRunnerURL
		}
		return backend.NewRunnerLoader(url, opts.RunnerAPIKey, defaultReqTimeout, defaultConnectTimeout), KindRunner, nil
	case KindLlama:
		return &backend.LlamaLoader{CtxSize: opts.LlamaCtx, Threads: opts.LlamaThreads}, KindLlama, nil
	case KindStub:
		return &backend.StubLoader{}, KindStub, nil
	default:
		return nil, "", generate.ConfigError{Field: "backend", Reason: fmt.Sprintf("unknown kind %q (want runner, llama or stub)", opts.Kind)}
	}
}
