package transaction

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	Save(ctx context.Context, tx *Transaction) error
	// SaveBatch must persist all records or none.
	SaveBatch(ctx context.Context, txs []*Transaction) error
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Transaction, error)
	Get(ctx context.Context, userID uuid.UUID, id string) (*Transaction, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	DeleteBatch(ctx context.Context, userID uuid.UUID, ids []string) (int, error)
}

// ListFilter narrows List results. Zero values mean "no constraint". Results are ordered by
// occurrence time, newest first.
type ListFilter struct {
	Kind      *Kind
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Transaction, error) {
	return s.repo.List(ctx, userID, filter)
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id string) (*Transaction, error) {
	return s.repo.Get(ctx, userID, id)
}

// Today lists the records that occurred since local midnight.
func (s *Service) Today(ctx context.Context, userID uuid.UUID) ([]*Transaction, error) {
	start, end := DayBounds(s.now())
	return s.repo.List(ctx, userID, ListFilter{StartDate: &start, EndDate: &end})
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("transaction id is required")
	}

	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) DeleteBatch(ctx context.Context, userID uuid.UUID, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("transaction ids are required")
	}

	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return 0, fmt.Errorf("transaction id at index %d is empty", i)
		}
	}

	n, err := s.repo.DeleteBatch(ctx, userID, ids)
	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, ErrNotFound
	}

	return n, nil
}

type CategoryTotal struct {
	Kind     Kind
	Category string
	Total    decimal.Decimal
	Count    int
}

type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	Count        int
	ByCategory   []CategoryTotal
}

// Summary totals the records matching filter. Categories are ordered by total, largest first.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID, filter ListFilter) (*Summary, error) {
	filter.Limit, filter.Offset = 0, 0

	txs, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return Summarize(txs), nil
}

func Summarize(txs []*Transaction) *Summary {
	sum := &Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	type key struct {
		kind     Kind
		category string
	}

	totals := make(map[key]*CategoryTotal)

	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			sum.TotalIncome = sum.TotalIncome.Add(tx.Amount)
		case KindExpense:
			sum.TotalExpense = sum.TotalExpense.Add(tx.Amount)
		}

		k := key{kind: tx.Kind, category: tx.Category}

		ct, ok := totals[k]
		if !ok {
			ct = &CategoryTotal{Kind: tx.Kind, Category: tx.Category, Total: decimal.Zero}
			totals[k] = ct
		}

		ct.Total = ct.Total.Add(tx.Amount)
		ct.Count++
	}

	sum.Count = len(txs)
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpense)

	sum.ByCategory = make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		sum.ByCategory = append(sum.ByCategory, *ct)
	}

	slices.SortFunc(sum.ByCategory, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}

		return cmp.Compare(a.Category, b.Category)
	})

	return sum
}

// DayBounds returns local midnight of t's day and the last second of that day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Second)
}
