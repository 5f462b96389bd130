package weather

import (
	"errors"
	"fmt"
)

// Stage names the step of a fetch that failed. It is informational only;
// every stage is handled the same way by callers.
type Stage string

const (
	StageTransport Stage = "transport"
	StageStatus    Stage = "status"
	StageDecode    Stage = "decode"
	StageValidate  Stage = "validate"
)

var (
	errLengthMismatch = errors.New("array length mismatch")
	errEmptySeries    = errors.New("empty series")
	errMissingValue   = errors.New("missing value")
)

// FetchFailure is the only error a pipeline run returns. No partial model
// accompanies it.
type FetchFailure struct {
	Stage Stage
	Err   error
}

// NewFetchFailure wraps err as a FetchFailure at the given stage.
func NewFetchFailure(stage Stage, err error) *FetchFailure {
	return &FetchFailure{Stage: stage, Err: err}
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("weather fetch failed (%s): %v", f.Stage, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// IsFetchFailure reports whether err is, or wraps, a FetchFailure.
func IsFetchFailure(err error) bool {
	var f *FetchFailure
	return errors.As(err, &f)
}
