package generate

// Reshape restores the [batch, returnSequences] structure of a flat decoded
// output sequence. The backend returns batchSize*numReturnSequences strings
// in row-major order; group i receives elements [i*k, (i+1)*k) where
// k = len(outputs)/batchSize.
//
// Any inconsistency fails with a ReshapeError: an output count that is not a
// multiple of the batch size, a wrong group count, or a wrong group size.
// Misaligned output is never padded or guessed at, because silently
// reshaping would hide a backend contract violation.
func Reshape(outputs []string, batchSize int) ([][]string, error) {
	if batchSize <= 0 {
		return nil, ReshapeError{What: "batch size", Got: batchSize, Want: 1}
	}
	if len(outputs)%batchSize != 0 {
		return nil, ReshapeError{What: "outputs", Got: len(outputs), Want: (len(outputs) / batchSize) * batchSize}
	}
	perInput := len(outputs) / batchSize
	if perInput == 0 {
		// fewer outputs than inputs; the backend must return at least one
		// sequence per input
		return nil, ReshapeError{What: "outputs", Got: len(outputs), Want: batchSize}
	}

	groups := make([][]string, 0, batchSize)
	for i := 0; i+perInput <= len(outputs); i += perInput {
		groups = append(groups, outputs[i:i+perInput:i+perInput])
	}

	if len(groups) != batchSize {
		return nil, ReshapeError{What: "groups", Got: len(groups), Want: batchSize}
	}
	if len(groups[0]) != perInput {
		return nil, ReshapeError{What: "group size", Got: len(groups[0]), Want: perInput}
	}
	return groups, nil
}
