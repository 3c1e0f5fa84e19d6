package codice

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates the raw text had no non-blank lines.
	ErrEmptyInput = errors.New("codice: input contains no usable lines")
	// ErrEmptyDataset indicates zero rows reached matrix extraction or clustering.
	ErrEmptyDataset = errors.New("codice: dataset is empty")
	// ErrInvalidDataset indicates a dataset name that cannot be mapped to a directory.
	ErrInvalidDataset = errors.New("codice: invalid dataset name")
	// ErrUnknownDataset indicates a dataset missing from the registry.
	ErrUnknownDataset = errors.New("codice: unknown dataset")
)

// ClusterCountError is returned when k cannot be used with the given row count.
type ClusterCountError struct {
	K int
	N int
}

func (e *ClusterCountError) Error() string {
	if e.K < 1 {
		return fmt.Sprintf("codice: k=%d must be positive", e.K)
	}
	return fmt.Sprintf("codice: k=%d > dataset size=%d", e.K, e.N)
}

// DimensionMismatchError is returned when matrix shapes are incompatible.
// Expected and Actual describe the dimension that was checked; Op names the
// operation that rejected the input.
type DimensionMismatchError struct {
	Op       string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("codice: %s: dimension mismatch: expected %d, got %d", e.Op, e.Expected, e.Actual)
}
