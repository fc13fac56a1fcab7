package backend

import (
	"context"
	"fmt"
)

// Stub is a deterministic in-memory Backend used by tests and by
// `llmgen run --backend stub` smoke runs. Tokenization maps each rune to its
// code point; Generate echoes every input row NumReturnSequences times with
// a " #<seq>" suffix, so decoded outputs are fully predictable.
//
// Real inference paths never fall back to the Stub implicitly: it has to be
// selected explicitly.
type Stub struct {
	// FailGenerate, when set, is returned by Generate verbatim.
	FailGenerate error
	// ExtraOutputs appends that many duplicate rows to the Generate result,
	// used to provoke reshape contract violations in tests.
	ExtraOutputs int

	// Recorded from the last calls, for assertions.
	LastPad    PadSide
	LastParams Params
}

const stubPadID int32 = 0

func (s *Stub) Tokenize(ctx context.Context, inputs []string, pad PadSide) (TokenMatrix, error) {
	s.LastPad = pad
	rows := make(TokenMatrix, len(inputs))
	width := 0
	for _, in := range inputs {
		if n := len([]rune(in)); n > width {
			width = n
		}
	}
	for i, in := range inputs {
		rows[i] = padRunes([]rune(in), width, pad)
	}
	return rows, nil
}

func (s *Stub) Generate(ctx context.Context, in TokenMatrix, params Params) (TokenMatrix, error) {
	if s.FailGenerate != nil {
		return nil, s.FailGenerate
	}
	s.LastParams = params
	out := make(TokenMatrix, 0, in.Rows()*params.NumReturnSequences+s.ExtraOutputs)
	width := 0
	var rawRows [][]rune
	for _, row := range in {
		for seq := 0; seq < params.NumReturnSequences; seq++ {
			r := append(trimPad(row), []rune(fmt.Sprintf(" #%d", seq))...)
			rawRows = append(rawRows, r)
			if len(r) > width {
				width = len(r)
			}
		}
	}
	for _, r := range rawRows {
		out = append(out, padRunes(r, width, PadLeft))
	}
	for i := 0; i < s.ExtraOutputs && len(out) > 0; i++ {
		out = append(out, out[0])
	}
	return out, nil
}

func (s *Stub) Decode(ctx context.Context, m TokenMatrix, skipSpecial bool) ([]string, error) {
	texts := make([]string, m.Rows())
	for i, row := range m {
		texts[i] = string(trimPad(row))
	}
	return texts, nil
}

func (s *Stub) MemoryFootprintBytes() int64 { return 1 << 20 }

func (s *Stub) Close() error { return nil }

// padRunes pads rs with stubPadID to width on the requested side.
func padRunes(rs []rune, width int, pad PadSide) []int32 {
	ids := make([]int32, 0, width)
	if pad == PadLeft {
		for i := len(rs); i < width; i++ {
			ids = append(ids, stubPadID)
		}
	}
	for _, r := range rs {
		ids = append(ids, int32(r))
	}
	if pad != PadLeft {
		for len(ids) < width {
			ids = append(ids, stubPadID)
		}
	}
	return ids
}

// trimPad drops pad ids and converts back to runes.
func trimPad(ids []int32) []rune {
	rs := make([]rune, 0, len(ids))
	for _, id := range ids {
		if id == stubPadID {
			continue
		}
		rs = append(rs, rune(id))
	}
	return rs
}

// StubLoader yields a Stub backend and records the budget it was handed.
type StubLoader struct {
	Backend    *Stub
	Err        error
	LastModel  string
	LastBudget map[string]int
}

func (l *StubLoader) Load(ctx context.Context, modelID string, budget map[string]int) (Backend, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.LastModel = modelID
	l.LastBudget = budget
	if l.Backend == nil {
		l.Backend = &Stub{}
	}
	return l.Backend, nil
}
