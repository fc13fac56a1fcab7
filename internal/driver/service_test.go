package driver

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"llmgen/internal/generate"
	"llmgen/pkg/types"
)

func testService(t *testing.T) *Service {
	t.Helper()
	loaded, err := Load(context.Background(), LoadOptions{Model: "m", Kind: KindStub}, zerolog.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return NewService(loaded, generate.DefaultDecodingConfig(), zerolog.Nop())
}

func TestServiceGenerateGroupsPerInput(t *testing.T) {
	svc := testService(t)
	resp, err := svc.Generate(context.Background(), types.GenerateRequest{
		Inputs:             []string{"x", "y", "z"},
		NumReturnSequences: 2,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := [][]string{{"x #0", "x #1"}, {"y #0", "y #1"}, {"z #0", "z #1"}}
	if !reflect.DeepEqual(resp.Groups, want) {
		t.Fatalf("unexpected groups: %v", resp.Groups)
	}
	if resp.Usage.BatchSize != 3 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestServiceGenerateValidatesMergedConfig(t *testing.T) {
	svc := testService(t)
	_, err := svc.Generate(context.Background(), types.GenerateRequest{
		Inputs: []string{"x"},
		TopP:   1.5,
	})
	if !generate.IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestServiceStatusCounts(t *testing.T) {
	svc := testService(t)
	if !svc.Ready() {
		t.Fatalf("service should be ready")
	}
	if _, err := svc.Generate(context.Background(), types.GenerateRequest{Inputs: []string{"a", "b"}}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	st := svc.Status()
	if st.Model != "m" || st.Backend != KindStub {
		t.Fatalf("unexpected status identity: %+v", st)
	}
	if st.BatchesTotal != 1 || st.TokensTotal == 0 {
		t.Fatalf("unexpected counters: %+v", st)
	}
}

func TestMergeRequestOverrides(t *testing.T) {
	base := generate.DefaultDecodingConfig()
	f := false
	minLen := 7
	req := types.GenerateRequest{
		MaxNewTokens:       32,
		MinLength:          &minLen,
		NumBeams:           4,
		NumReturnSequences: 2,
		NoEarlyStop:        true,
		DoSample:           &f,
		TopK:               50,
		LengthPenalty:      2.0,
		Seed:               99,
	}
	cfg := mergeRequest(base, req)
	if cfg.MaxNewTokens != 32 || cfg.NumBeams != 4 || cfg.NumReturnSequences != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MinLength == nil || *cfg.MinLength != 7 {
		t.Fatalf("min length not applied")
	}
	if !cfg.NoEarlyStop || cfg.DoSample || cfg.TopK != 50 || cfg.LengthPenalty != 2.0 || cfg.Seed != 99 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// untouched fields keep base values
	if cfg.Temperature != base.Temperature || cfg.TopP != base.TopP {
		t.Fatalf("base values clobbered: %+v", cfg)
	}
}
