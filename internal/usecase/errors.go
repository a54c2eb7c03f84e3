package usecase

import "fmt"

// PredictionErrorKind classifies why a prediction could not be produced.
type PredictionErrorKind int

const (
	// KindNotFound means the primary series could not be fetched.
	KindNotFound PredictionErrorKind = iota + 1
	// KindComputeEmpty means the feature table had no usable row.
	KindComputeEmpty
	// KindScoringFailure means the model could not be loaded or refused the input.
	KindScoringFailure
)

func (k PredictionErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindComputeEmpty:
		return "compute_empty"
	case KindScoringFailure:
		return "scoring_failure"
	default:
		return "unknown"
	}
}

// PredictionError carries the resolved display name so callers can still render it.
type PredictionError struct {
	Kind   PredictionErrorKind
	Ticker string
	Name   string
	Err    error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("predict %s: %s: %v", e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("predict %s: %s", e.Ticker, e.Kind)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// SeriesNotFoundError reports a ticker without data; Ticker is the caller's input.
type SeriesNotFoundError struct {
	Ticker string
	Err    error
}

func (e *SeriesNotFoundError) Error() string {
	return fmt.Sprintf("%s: no data found", e.Ticker)
}

func (e *SeriesNotFoundError) Unwrap() error { return e.Err }
