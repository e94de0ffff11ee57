package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrDimensionMismatch indicates a derivative or initial state whose
	// length does not match the model's declared dimension.
	ErrDimensionMismatch = errors.New("dynamo: state dimension mismatch")

	// ErrNonPositiveDt indicates a zero or negative integration timestep.
	ErrNonPositiveDt = errors.New("dynamo: timestep must be positive")

	// ErrInvalidInput indicates driver input rejected by the limiter.
	ErrInvalidInput = errors.New("dynamo: invalid driver input")

	// ErrNotPrepared indicates the daemon was stepped before Reset.
	ErrNotPrepared = errors.New("dynamo: simulator not prepared")
)
