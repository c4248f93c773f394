package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPipelineAlreadyRunning is returned when a start request hits an edition
// with a run already in flight. The request is rejected, never queued.
var ErrPipelineAlreadyRunning = errors.New("pipeline already running for this edition")

// ErrEditionImmutable is returned for any stage or restart attempt against
// an approved edition.
var ErrEditionImmutable = errors.New("edition is approved and immutable")

// ErrEditionNotFound is returned by services when no edition matches the id.
var ErrEditionNotFound = errors.New("edition not found")

// ErrFlagNotFound is returned by services when no flag matches the id.
var ErrFlagNotFound = errors.New("compliance flag not found")

// ErrCancelled is the failure reason recorded when a run is cancelled
// between stage boundaries.
var ErrCancelled = errors.New("pipeline run cancelled")

// BlockingFlagsUnresolvedError rejects an approval attempt while blocking
// flags remain unresolved, naming the offending flags.
type BlockingFlagsUnresolvedError struct {
	FlagIDs []string
}

func (e *BlockingFlagsUnresolvedError) Error() string {
	return fmt.Sprintf("approval blocked by %d unresolved flag(s): %s",
		len(e.FlagIDs), strings.Join(e.FlagIDs, ", "))
}
