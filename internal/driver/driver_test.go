package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"llmgen/internal/backend"
	"llmgen/internal/dataset"
	"llmgen/internal/device"
	"llmgen/internal/generate"
)

func testOrchestrator(t *testing.T, batchSize, returnSeqs int) *generate.Orchestrator {
	t.Helper()
	cfg := generate.DefaultDecodingConfig()
	cfg.BatchSize = batchSize
	cfg.NumReturnSequences = returnSeqs
	o, err := generate.NewOrchestrator(&backend.Stub{}, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	return o
}

func TestRunBatchesWholeInput(t *testing.T) {
	inputs := []string{"a", "b", "c", "d", "e"}
	orch := testOrchestrator(t, 2, 1)
	var buf bytes.Buffer
	totals, err := Run(context.Background(), orch, inputs, dataset.NewWriter(&buf), zerolog.Nop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 5 inputs at batch size 2: two full batches plus a short final batch
	if totals.Batches != 3 || totals.Inputs != 5 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 records, got %d", len(lines))
	}
	var rec dataset.Record
	if err := json.Unmarshal([]byte(lines[4]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID != 4 || rec.Source != "e" || len(rec.Outputs) != 1 || rec.Outputs[0] != "e #0" {
		t.Fatalf("unexpected final record: %+v", rec)
	}
}

func TestRunAbortsOnBatchFailure(t *testing.T) {
	cfg := generate.DefaultDecodingConfig()
	cfg.BatchSize = 1
	stub := &backend.Stub{FailGenerate: context.DeadlineExceeded}
	orch, err := generate.NewOrchestrator(stub, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	var buf bytes.Buffer
	_, err = Run(context.Background(), orch, []string{"a", "b"}, dataset.NewWriter(&buf), zerolog.Nop())
	if err == nil {
		t.Fatalf("expected run to abort")
	}
	if !generate.IsBackendError(err) {
		t.Fatalf("expected BackendError, got %T", err)
	}
}

func TestLoadPlansMemoryForStub(t *testing.T) {
	loaded, err := Load(context.Background(), LoadOptions{
		Model:          "test-model",
		Kind:           KindStub,
		MemoryFraction: 0.8,
		Prober:         device.Static{Info: device.Info{Count: 2, TotalGiB: 40}},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := generate.MemoryBudget{"0": 19, "1": 32, "cpu": 400}
	if len(loaded.Plan) != len(want) {
		t.Fatalf("unexpected plan: %v", loaded.Plan)
	}
	for k, v := range want {
		if loaded.Plan[k] != v {
			t.Fatalf("plan[%s]=%d want %d", k, loaded.Plan[k], v)
		}
	}
}

func TestLoadSkipsPlanOnSingleDevice(t *testing.T) {
	loaded, err := Load(context.Background(), LoadOptions{
		Model:          "test-model",
		Kind:           KindStub,
		MemoryFraction: 0.8,
		Prober:         device.Static{Info: device.Info{Count: 1, TotalGiB: 40}},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Plan != nil {
		t.Fatalf("expected no plan, got %v", loaded.Plan)
	}
}

func TestLoadRejectsMissingModelAndUnknownKind(t *testing.T) {
	if _, err := Load(context.Background(), LoadOptions{Kind: KindStub}, zerolog.Nop()); !generate.IsConfigError(err) {
		t.Fatalf("expected ConfigError for missing model, got %v", err)
	}
	if _, err := Load(context.Background(), LoadOptions{Model: "m", Kind: "bogus"}, zerolog.Nop()); !generate.IsConfigError(err) {
		t.Fatalf("expected ConfigError for unknown kind, got %v", err)
	}
}

func TestApplyAllocConf(t *testing.T) {
	t.Setenv(allocConfEnv, "")
	if err := ApplyAllocConf(""); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv(allocConfEnv); got != defaultAllocConf {
		t.Fatalf("default alloc conf not applied: %q", got)
	}
	if err := ApplyAllocConf("max_split_size_mb:256"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv(allocConfEnv); got != "max_split_size_mb:256" {
		t.Fatalf("custom alloc conf not applied: %q", got)
	}
}
