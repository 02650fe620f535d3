package search

import "errors"

var (
	// ErrInvalidConfig is returned by New for inconsistent configuration
	// or input shapes.
	ErrInvalidConfig = errors.New("invalid search configuration")
	// ErrAlreadyRun is returned by a second call to Stage.Run.
	ErrAlreadyRun = errors.New("stage already run")
)
