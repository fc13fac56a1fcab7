package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llmgen/internal/dataset"
	"llmgen/internal/driver"
	"llmgen/internal/generate"
	"llmgen/internal/httpapi"
	"llmgen/pkg/types"
)

// startServer loads the stub backend and serves the full HTTP mux, exactly
// as the serve command wires it.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	loaded, err := driver.Load(context.Background(), driver.LoadOptions{
		Model: "stub-model",
		Kind:  driver.KindStub,
	}, log)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = loaded.Backend.Close() })

	svc := driver.NewService(loaded, generate.DefaultDecodingConfig(), log)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestE2E_GenerateGroupsAndUsage(t *testing.T) {
	srv := startServer(t)

	resp := postJSON(t, srv.URL+"/generate", types.GenerateRequest{
		Inputs:             []string{"alpha", "beta"},
		NumReturnSequences: 2,
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, b)
	}
	var out types.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := [][]string{
		{"alpha #0", "alpha #1"},
		{"beta #0", "beta #1"},
	}
	if len(out.Groups) != len(want) {
		t.Fatalf("groups = %d, want %d", len(out.Groups), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if out.Groups[i][j] != want[i][j] {
				t.Errorf("groups[%d][%d] = %q, want %q", i, j, out.Groups[i][j], want[i][j])
			}
		}
	}
	if out.Usage.BatchSize != 2 {
		t.Errorf("usage batch_size = %d, want 2", out.Usage.BatchSize)
	}
	if out.Usage.NewTokens <= 0 {
		t.Errorf("usage new_tokens = %d, want > 0", out.Usage.NewTokens)
	}
}

func TestE2E_StatusCountsBatches(t *testing.T) {
	srv := startServer(t)

	resp := postJSON(t, srv.URL+"/generate", types.GenerateRequest{Inputs: []string{"one"}})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	sr, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer func() { _ = sr.Body.Close() }()
	var st types.StatusResponse
	if err := json.NewDecoder(sr.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Model != "stub-model" || st.Backend != driver.KindStub {
		t.Errorf("status identity = %q/%q", st.Model, st.Backend)
	}
	if st.BatchesTotal != 1 {
		t.Errorf("batches_total = %d, want 1", st.BatchesTotal)
	}
	if st.TokensTotal == 0 {
		t.Errorf("tokens_total = 0, want > 0")
	}
}

func TestE2E_BadRequestsMapTo400(t *testing.T) {
	srv := startServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"empty inputs", types.GenerateRequest{Inputs: nil}},
		{"blank input", types.GenerateRequest{Inputs: []string{"  "}}},
		{"bad top_p", types.GenerateRequest{Inputs: []string{"x"}, TopP: 1.5}},
		{"bad top_k", types.GenerateRequest{Inputs: []string{"x"}, TopK: -5}},
	}
	for _, tc := range cases {
		resp := postJSON(t, srv.URL+"/generate", tc.body)
		var er types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			t.Fatalf("%s: decode error body: %v", tc.name, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, resp.StatusCode)
		}
		if er.Error == "" || er.Code != http.StatusBadRequest {
			t.Errorf("%s: error body = %+v", tc.name, er)
		}
	}
}

func TestE2E_HealthAndReady(t *testing.T) {
	srv := startServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

// TestE2E_FileRun exercises the batch path end to end: JSONL sources in,
// grouped JSONL records out, through the same driver the run command uses.
func TestE2E_FileRun(t *testing.T) {
	log := zerolog.Nop()
	loaded, err := driver.Load(context.Background(), driver.LoadOptions{
		Model: "stub-model",
		Kind:  driver.KindStub,
	}, log)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer func() { _ = loaded.Backend.Close() }()

	dir := t.TempDir()
	in := filepath.Join(dir, "sources.jsonl")
	lines := []string{
		`{"complex": "first sentence"}`,
		`{"complex": "second sentence"}`,
		`{"complex": "third sentence"}`,
	}
	if err := os.WriteFile(in, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	inputs, err := dataset.ReadSources(in, "")
	if err != nil {
		t.Fatalf("read sources: %v", err)
	}
	if len(inputs) != 3 {
		t.Fatalf("inputs = %d, want 3", len(inputs))
	}

	cfg := generate.DefaultDecodingConfig()
	cfg.BatchSize = 2
	orch, err := generate.NewOrchestrator(loaded.Backend, cfg, log)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	out := filepath.Join(dir, "out.jsonl")
	f, err := dataset.OpenOutput(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	totals, err := driver.Run(ctx, orch, inputs, dataset.NewWriter(f), log)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close output: %v", err)
	}
	if totals.Batches != 2 || totals.Inputs != 3 {
		t.Fatalf("totals = %+v, want 2 batches over 3 inputs", totals)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var recs []dataset.Record
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rec dataset.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		recs = append(recs, rec)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	for i, rec := range recs {
		if rec.ID != i {
			t.Errorf("record %d: id = %d", i, rec.ID)
		}
		if rec.Source != inputs[i] {
			t.Errorf("record %d: source = %q, want %q", i, rec.Source, inputs[i])
		}
		if len(rec.Outputs) != 1 || rec.Outputs[0] != inputs[i]+" #0" {
			t.Errorf("record %d: outputs = %v", i, rec.Outputs)
		}
	}
}
