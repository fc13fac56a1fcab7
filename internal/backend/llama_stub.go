//go:build !llama

package backend

// This file provides a no-CGO stub for the llama loader. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real adapter lives in llama.go (tagged 'llama').

import "context"

// llamaBuilt indicates whether this binary was compiled with llama support.
var llamaBuilt = false

// LlamaLoader is a stub that satisfies Loader but refuses to load a model
// without the 'llama' build tag. This avoids any mocked behavior in binaries
// built without CGO support.
type LlamaLoader struct {
	CtxSize int
	Threads int
}

func (l *LlamaLoader) Load(ctx context.Context, modelID string, budget map[string]int) (Backend, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
