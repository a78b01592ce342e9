// Package wire holds the JSON shapes exchanged over the REST API.
package wire

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type Transaction struct {
	ID          string           `json:"id"`
	Type        transaction.Kind `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Timestamp   string           `json:"timestamp"`
	CreatedAt   time.Time        `json:"created_at"`
}

func FromTransaction(tx *transaction.Transaction) Transaction {
	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}

	return Transaction{
		ID:          tx.ID,
		Type:        tx.Kind,
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Tags:        tags,
		Timestamp:   tx.Timestamp(),
		CreatedAt:   tx.CreatedAt,
	}
}

func FromTransactions(txs []*transaction.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = FromTransaction(tx)
	}

	return out
}

func (t Transaction) ToTransaction() (*transaction.Transaction, error) {
	occurred, err := transaction.ParseTimestamp(t.Timestamp)
	if err != nil {
		return nil, &intake.ValidationError{Field: "timestamp", Reason: "must look like 2006-01-02 15:04:05"}
	}

	return &transaction.Transaction{
		ID:          t.ID,
		Kind:        t.Type,
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Tags:        t.Tags,
		OccurredAt:  occurred,
		CreatedAt:   t.CreatedAt,
	}, nil
}

// Input is the body of a record request. Timestamp is optional.
type Input struct {
	Type        transaction.Kind `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	Category    string           `json:"category,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

func (in Input) ToInput() (transaction.Input, error) {
	out := transaction.Input{
		Kind:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Tags:        in.Tags,
	}

	if ts := strings.TrimSpace(in.Timestamp); ts != "" {
		t, err := ParseTime(ts)
		if err != nil {
			return transaction.Input{}, &intake.ValidationError{Field: "timestamp", Reason: "must look like 2006-01-02 15:04:05"}
		}

		out.OccurredAt = &t
	}

	return out, nil
}

func ToInputs(ins []Input) ([]transaction.Input, error) {
	out := make([]transaction.Input, len(ins))

	for i, in := range ins {
		v, err := in.ToInput()
		if err != nil {
			return nil, &intake.BatchItemError{Index: i, Err: err}
		}

		out[i] = v
	}

	return out, nil
}

func FromInput(in transaction.Input) Input {
	out := Input{
		Type:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Tags:        in.Tags,
	}

	if in.OccurredAt != nil {
		out.Timestamp = in.OccurredAt.Local().Format(transaction.TimestampLayout)
	}

	return out
}

// ParseTime accepts a full timestamp or a bare date (midnight, local time).
func ParseTime(s string) (time.Time, error) {
	if t, err := transaction.ParseTimestamp(s); err == nil {
		return t, nil
	}

	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

type Batch struct {
	Transactions []Input `json:"transactions"`
}

type BatchResult struct {
	Count        int           `json:"count"`
	Transactions []Transaction `json:"transactions"`
}

type DeleteBatch struct {
	IDs []string `json:"ids"`
}

type DeleteBatchResult struct {
	Deleted int `json:"deleted"`
}

type Match struct {
	Transaction Transaction `json:"transaction"`
	Similarity  float64     `json:"similarity"`
}

type DuplicateCheck struct {
	HasSimilar bool            `json:"has_similar"`
	Level      duplicate.Level `json:"level"`
	Suggestion string          `json:"suggestion"`
	Matches    []Match         `json:"similar_transactions"`
}

func FromDuplicateResult(r duplicate.Result) DuplicateCheck {
	out := DuplicateCheck{
		HasSimilar: r.HasSimilar,
		Level:      r.Level,
		Suggestion: r.Suggestion,
		Matches:    make([]Match, len(r.Matches)),
	}

	for i, m := range r.Matches {
		out.Matches[i] = Match{Transaction: FromTransaction(m.Transaction), Similarity: m.Similarity}
	}

	return out
}

type CategoryTotal struct {
	Type     transaction.Kind `json:"type"`
	Category string           `json:"category"`
	Total    decimal.Decimal  `json:"total"`
	Count    int              `json:"count"`
}

type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
	ByCategory   []CategoryTotal `json:"by_category"`
}

func FromSummary(s *transaction.Summary) Summary {
	out := Summary{
		TotalIncome:  s.TotalIncome,
		TotalExpense: s.TotalExpense,
		Balance:      s.Balance,
		Count:        s.Count,
		ByCategory:   make([]CategoryTotal, len(s.ByCategory)),
	}

	for i, c := range s.ByCategory {
		out.ByCategory[i] = CategoryTotal{Type: c.Kind, Category: c.Category, Total: c.Total, Count: c.Count}
	}

	return out
}

// Error is the JSON body of a failed request. Field and Index are set for validation failures.
type Error struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Index *int   `json:"index,omitempty"`
}
