package backend

import "context"

// PadSide selects which edge of a tokenized sequence receives padding.
type PadSide string

const (
	// PadLeft pads at the front of the sequence. Required for generation:
	// the model continues from the right edge, so right padding would put
	// pad tokens at the continuation point.
	PadLeft PadSide = "left"
	// PadRight pads at the back, as used for classification-style tasks.
	PadRight PadSide = "right"
)

// TokenMatrix is a padded [rows][cols] matrix of token ids. All rows have
// the same length. A batch matrix is owned by a single generation call and
// discarded after decoding.
type TokenMatrix [][]int32

// Rows returns the batch dimension.
func (m TokenMatrix) Rows() int { return len(m) }

// Cols returns the (padded) sequence length, 0 for an empty matrix.
func (m TokenMatrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Params enumerates every decoding parameter passed to Generate. There are
// no hidden defaults: the orchestrator fills in each field explicitly from
// its validated DecodingConfig.
type Params struct {
	MaxNewTokens       int
	MinLength          *int
	NumBeams           int
	NumReturnSequences int
	EarlyStopping      bool
	DoSample           bool
	Temperature        float64
	TopK               int
	TopP               float64
	LengthPenalty      float64
	Seed               int64
}

// Backend abstracts the loaded model runtime used by the orchestrator.
// Concrete implementations: the HTTP runner client (runner_http.go), the
// in-process llama.cpp adapter (llama.go, build tag 'llama'), and the
// deterministic Stub used by tests and smoke runs.
type Backend interface {
	// Tokenize converts a batch of strings into a padded id matrix.
	Tokenize(ctx context.Context, inputs []string, pad PadSide) (TokenMatrix, error)
	// Generate runs one autoregressive generation pass. The returned matrix
	// has params.NumReturnSequences rows per input row and includes the
	// prompt tokens.
	Generate(ctx context.Context, in TokenMatrix, params Params) (TokenMatrix, error)
	// Decode converts token ids back to text, optionally skipping
	// special/control tokens.
	Decode(ctx context.Context, m TokenMatrix, skipSpecial bool) ([]string, error)
	// MemoryFootprintBytes reports the approximate resident size of the
	// loaded model, 0 if unknown.
	MemoryFootprintBytes() int64
	// Close releases the model and any transport resources.
	Close() error
}

// Loader loads a pretrained model and yields a ready Backend. The budget
// maps device keys to whole-GiB allowances; a nil budget means the backend
// chooses its own placement.
type Loader interface {
	Load(ctx context.Context, modelID string, budget map[string]int) (Backend, error)
}
