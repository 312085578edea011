package checker

import "errors"

var (
	// ErrWitnessBound means a witness grew past Size() * states, which only a
	// corrupted model can cause.
	ErrWitnessBound = errors.New("witness exceeds search bound")
	// ErrInvalidWitness is returned by Replay for paths that do not
	// demonstrate a violation.
	ErrInvalidWitness = errors.New("invalid witness")
)
