package intake

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ValidationError names the first input rule that was violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BatchItemError reports which batch item failed validation. Nothing from the batch is stored.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure reported by the transaction repository.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// AmountFromFloat converts a JSON number into a decimal amount, rejecting NaN and infinities.
// Sign is checked later by validation.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, &ValidationError{Field: "amount", Reason: "must be a finite number"}
	}

	return decimal.NewFromFloat(f), nil
}
