// Package generate holds the decoding core of llmgen: decoding-parameter
// validation, pre-load device memory planning, per-batch generation
// orchestration, and output reshaping. It is structured into small files by
// concern:
//
//   - config.go: DecodingConfig, defaults, and Validate.
//   - planner.go: PlanDeviceMemory and the MemoryBudget type.
//   - orchestrator.go: Orchestrator, one tokenize->generate->decode->reshape
//     pass per batch.
//   - reshape.go: flat-to-grouped output reconstruction with validation.
//   - errors.go: error types and helpers (IsConfigError, IsReshapeError,
//     IsBackendError).
//   - metrics.go: prometheus instruments for batches and token throughput.
//
// The package performs no I/O of its own; the model backend is an injected
// capability (see internal/backend) and the device probe happens before
// planning (see internal/device).
package generate
