package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind represents the direction of a transaction (income or expense).
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// TimestampLayout is the second-resolution layout used wherever an occurrence time is rendered
// or parsed as text.
const TimestampLayout = "2006-01-02 15:04:05"

var ErrNotFound = errors.New("transaction not found")

// Transaction is a recorded income or expense. Records are immutable once created.
type Transaction struct {
	ID          string
	UserID      uuid.UUID
	Kind        Kind
	Amount      decimal.Decimal
	Category    string
	Description string // the caller's raw input, kept verbatim
	Tags        []string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// Timestamp renders OccurredAt in local time at second resolution.
func (t *Transaction) Timestamp() string {
	return t.OccurredAt.Local().Format(TimestampLayout)
}

// Input is what a caller supplies to record a transaction.
type Input struct {
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	Category    string // optional, inferred when empty
	Tags        []string
	// OccurredAt pins the occurrence time. When nil it is resolved from relative-date words in
	// the description, falling back to now.
	OccurredAt *time.Time
}

// ParseTimestamp parses a TimestampLayout string in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
