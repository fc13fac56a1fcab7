//go:build llama

package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// LlamaLoader loads a local GGUF model in-process via go-llama.cpp.
type LlamaLoader struct {
	CtxSize int
	Threads int
}

// Load opens the model file. llama.cpp manages its own device placement, so
// the budget map is accepted but not forwarded; multi-device planning only
// applies to runner backends that understand it.
func (l *LlamaLoader) Load(ctx context.Context, modelID string, budget map[string]int) (Backend, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("model path is empty")
	}
	ctxSize := l.CtxSize
	if ctxSize <= 0 {
		ctxSize = 2048
	}
	m, err := llama.New(modelID, llama.SetContext(ctxSize))
	if err != nil {
		return nil, err
	}
	var footprint int64
	if fi, serr := os.Stat(modelID); serr == nil {
		// file size approximates resident weights
		footprint = fi.Size()
	}
	return &llamaBackend{model: m, threads: l.Threads, ctxSize: ctxSize, footprint: footprint}, nil
}

// llamaBackend adapts the text-in/text-out llama.cpp API to the token-matrix
// capability. llama.cpp exposes no detokenizer for arbitrary id sequences,
// so the backend retains the raw prompt and completion strings across the
// tokenize/generate/decode steps of one call; the id matrices carry the real
// tokenization and are authoritative for shape and throughput accounting.
type llamaBackend struct {
	model     *llama.LLama
	threads   int
	ctxSize   int
	footprint int64

	prompts []string // retained from the last Tokenize call
	decoded []string // completions staged for the next Decode call
}

const llamaPadID int32 = 0

func (b *llamaBackend) Tokenize(ctx context.Context, inputs []string, pad PadSide) (TokenMatrix, error) {
	if b.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	rows := make([][]int32, len(inputs))
	width := 0
	for i, in := range inputs {
		n, ids, err := b.model.TokenizeString(in, llama.SetTokens(b.ctxSize))
		if err != nil {
			return nil, fmt.Errorf("tokenize input %d: %w", i, err)
		}
		rows[i] = ids[:n]
		if int(n) > width {
			width = int(n)
		}
	}
	out := make(TokenMatrix, len(rows))
	for i, ids := range rows {
		padded := make([]int32, 0, width)
		if pad == PadLeft {
			for j := len(ids); j < width; j++ {
				padded = append(padded, llamaPadID)
			}
		}
		padded = append(padded, ids...)
		for len(padded) < width {
			padded = append(padded, llamaPadID)
		}
		out[i] = padded
	}
	b.prompts = append(b.prompts[:0], inputs...)
	return out, nil
}

func (b *llamaBackend) Generate(ctx context.Context, in TokenMatrix, params Params) (TokenMatrix, error) {
	if b.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	if in.Rows() != len(b.prompts) {
		return nil, fmt.Errorf("generate: %d prompt rows but %d retained prompts", in.Rows(), len(b.prompts))
	}
	b.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})

	b.decoded = b.decoded[:0]
	var rows [][]int32
	width := 0
	for i, prompt := range b.prompts {
		for seq := 0; seq < params.NumReturnSequences; seq++ {
			po := b.predictOptions(params, seq)
			text, err := b.model.Predict(prompt, po...)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, fmt.Errorf("predict input %d seq %d: %w", i, seq, err)
			}
			full := prompt + text
			b.decoded = append(b.decoded, full)
			n, ids, terr := b.model.TokenizeString(full, llama.SetTokens(b.ctxSize+params.MaxNewTokens))
			if terr != nil {
				return nil, fmt.Errorf("retokenize output %d: %w", i, terr)
			}
			rows = append(rows, ids[:n])
			if int(n) > width {
				width = int(n)
			}
		}
	}
	out := make(TokenMatrix, len(rows))
	for i, ids := range rows {
		padded := make([]int32, 0, width)
		for j := len(ids); j < width; j++ {
			padded = append(padded, llamaPadID)
		}
		out[i] = append(padded, ids...)
	}
	return out, nil
}

func (b *llamaBackend) predictOptions(params Params, seq int) []llama.PredictOption {
	threads := b.threads
	if threads <= 0 {
		threads = 4
	}
	po := []llama.PredictOption{
		llama.SetThreads(threads),
		llama.SetTokens(params.MaxNewTokens),
		llama.SetTemperature(float32(params.Temperature)),
	}
	if params.TopK > 0 {
		po = append(po, llama.SetTopK(params.TopK))
	}
	if params.TopP > 0 {
		po = append(po, llama.SetTopP(float32(params.TopP)))
	}
	if params.Seed != 0 {
		// offset the seed per return sequence so candidates differ
		po = append(po, llama.SetSeed(int(params.Seed)+seq))
	}
	return po
}

// Decode returns the completions staged by the preceding Generate call. The
// matrix argument is accepted for interface symmetry; ids and staged strings
// describe the same sequences.
func (b *llamaBackend) Decode(ctx context.Context, m TokenMatrix, skipSpecial bool) ([]string, error) {
	if m.Rows() != len(b.decoded) {
		return nil, fmt.Errorf("decode: %d rows but %d staged outputs", m.Rows(), len(b.decoded))
	}
	out := make([]string, len(b.decoded))
	copy(out, b.decoded)
	return out, nil
}

func (b *llamaBackend) MemoryFootprintBytes() int64 { return b.footprint }

func (b *llamaBackend) Close() error {
	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}
