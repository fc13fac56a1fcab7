package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RunnerLoader talks to an external model-runner process over HTTP. The
// runner owns the actual weights, tokenizer and accelerator state; this
// client only moves token matrices and decoding parameters across the wire.
type RunnerLoader struct {
	baseURL        string
	apiKey         string
	reqTimeout     time.Duration
	connectTimeout time.Duration
	httpClient     *http.Client
}

// NewRunnerLoader constructs a runner-backed loader.
func NewRunnerLoader(baseURL, apiKey string, reqTimeout, connectTimeout time.Duration) *RunnerLoader {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 on the client: every request carries a context
	// deadline instead, so a long generation call is not cut off by a
	// transport-wide limit.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &RunnerLoader{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		reqTimeout:     reqTimeout,
		connectTimeout: connectTimeout,
		httpClient:     cli,
	}
}

// runnerLoadRequest is the payload for POST /load.
type runnerLoadRequest struct {
	Model string `json:"model"`
	// MaxMemory maps device keys to whole-GiB allowances; omitted when the
	// runner should use its default placement.
	MaxMemory map[string]int `json:"max_memory,omitempty"`
}

type runnerLoadResponse struct {
	FootprintBytes int64 `json:"footprint_bytes"`
}

type runnerTokenizeRequest struct {
	Inputs      []string `json:"inputs"`
	PaddingSide string   `json:"padding_side"`
}

type runnerTokenizeResponse struct {
	IDs [][]int32 `json:"ids"`
}

// runnerGenerateRequest enumerates every decoding parameter explicitly; the
// runner applies no hidden defaults.
type runnerGenerateRequest struct {
	IDs                [][]int32 `json:"ids"`
	MaxNewTokens       int       `json:"max_new_tokens"`
	MinLength          *int      `json:"min_length,omitempty"`
	NumBeams           int       `json:"num_beams"`
	NumReturnSequences int       `json:"num_return_sequences"`
	EarlyStopping      bool      `json:"early_stopping"`
	DoSample           bool      `json:"do_sample"`
	Temperature        float64   `json:"temperature"`
	TopK               int       `json:"top_k"`
	TopP               float64   `json:"top_p"`
	LengthPenalty      float64   `json:"length_penalty"`
	Seed               int64     `json:"seed,omitempty"`
}

type runnerGenerateResponse struct {
	IDs [][]int32 `json:"ids"`
}

type runnerDecodeRequest struct {
	IDs         [][]int32 `json:"ids"`
	SkipSpecial bool      `json:"skip_special_tokens"`
}

type runnerDecodeResponse struct {
	Texts []string `json:"texts"`
}

type runnerErrorResponse struct {
	Error string `json:"error"`
}

// Load asks the runner to load the model under the given placement plan and
// returns a Backend bound to it.
func (l *RunnerLoader) Load(ctx context.Context, modelID string, budget map[string]int) (Backend, error) {
	var resp runnerLoadResponse
	err := l.postJSON(ctx, "/load", runnerLoadRequest{Model: modelID, MaxMemory: budget}, &resp)
	if err != nil {
		return nil, err
	}
	return &runnerBackend{loader: l, footprint: resp.FootprintBytes}, nil
}

// runnerBackend is a Backend bound to a model loaded on the runner.
type runnerBackend struct {
	loader    *RunnerLoader
	footprint int64
}

func (b *runnerBackend) Tokenize(ctx context.Context, inputs []string, pad PadSide) (TokenMatrix, error) {
	var resp runnerTokenizeResponse
	req := runnerTokenizeRequest{Inputs: inputs, PaddingSide: string(pad)}
	if err := b.loader.postJSON(ctx, "/tokenize", req, &resp); err != nil {
		return nil, err
	}
	return TokenMatrix(resp.IDs), nil
}

func (b *runnerBackend) Generate(ctx context.Context, in TokenMatrix, params Params) (TokenMatrix, error) {
	req := runnerGenerateRequest{
		IDs:                in,
		MaxNewTokens:       params.MaxNewTokens,
		MinLength:          params.MinLength,
		NumBeams:           params.NumBeams,
		NumReturnSequences: params.NumReturnSequences,
		EarlyStopping:      params.EarlyStopping,
		DoSample:           params.DoSample,
		Temperature:        params.Temperature,
		TopK:               params.TopK,
		TopP:               params.TopP,
		LengthPenalty:      params.LengthPenalty,
		Seed:               params.Seed,
	}
	var resp runnerGenerateResponse
	if err := b.loader.postJSON(ctx, "/generate", req, &resp); err != nil {
		return nil, err
	}
	return TokenMatrix(resp.IDs), nil
}

func (b *runnerBackend) Decode(ctx context.Context, m TokenMatrix, skipSpecial bool) ([]string, error) {
	var resp runnerDecodeResponse
	if err := b.loader.postJSON(ctx, "/detokenize", runnerDecodeRequest{IDs: m, SkipSpecial: skipSpecial}, &resp); err != nil {
		return nil, err
	}
	return resp.Texts, nil
}

func (b *runnerBackend) MemoryFootprintBytes() int64 { return b.footprint }

func (b *runnerBackend) Close() error {
	b.loader.httpClient.CloseIdleConnections()
	return nil
}

// postJSON sends a JSON request and decodes the JSON response, applying the
// configured per-request timeout via context.
func (l *RunnerLoader) postJSON(ctx context.Context, path string, payload, out any) error {
	if l.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.reqTimeout)
		defer cancel()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		// Transport-level failures mean the runner itself is unreachable.
		var uerr *url.Error
		if errors.As(err, &uerr) && ctx.Err() == nil {
			return ErrDependencyUnavailable("runner unreachable at " + l.baseURL + ": " + uerr.Err.Error())
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		// Prefer the runner's structured error message when present.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var rerr runnerErrorResponse
		if json.Unmarshal(raw, &rerr) == nil && rerr.Error != "" {
			return fmt.Errorf("runner %s: %s (status %d)", path, rerr.Error, resp.StatusCode)
		}
		return fmt.Errorf("runner %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
