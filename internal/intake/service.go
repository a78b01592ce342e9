// Package intake records transactions from loosely structured input: it validates, dates the
// record from relative-day words in the description, infers a category and screens for
// duplicates before anything reaches storage.
package intake

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/category"
	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/reldate"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const DefaultLookback = 24 * time.Hour

// CategoryMatcher looks up a category the user taught for a description. An empty result means
// no mapping applies.
type CategoryMatcher interface {
	Match(ctx context.Context, userID uuid.UUID, kind transaction.Kind, description string) (string, error)
}

type Service struct {
	repo       transaction.Repository
	classifier *category.Classifier
	resolver   *reldate.Resolver
	detector   *duplicate.Detector
	matcher    CategoryMatcher
	now        func() time.Time
	lookback   time.Duration
	threshold  float64
}

type Option func(*Service)

func WithMatcher(m CategoryMatcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithClock replaces the wall clock used for timestamps and relative dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLookback sets the window CheckDuplicate uses when the caller passes no hours.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

func WithThreshold(t float64) Option {
	return func(s *Service) {
		s.threshold = t
	}
}

func NewService(repo transaction.Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		classifier: category.New(),
		now:        time.Now,
		lookback:   DefaultLookback,
		threshold:  duplicate.DefaultThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.resolver = reldate.NewWithClock(s.now)
	s.detector = duplicate.New(s.classifier, duplicate.WithThreshold(s.threshold))

	return s
}

func (s *Service) Classifier() *category.Classifier {
	return s.classifier
}

// Validate checks kind, amount and description in that order and reports the first violation.
func Validate(in transaction.Input) error {
	if in.Kind == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}

	if !in.Kind.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}

	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}

	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}

	return nil
}

// Record validates in, fills in the occurrence time and category and stores the result.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, in transaction.Input) (*transaction.Transaction, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	tx := s.build(ctx, userID, in)

	if err := s.repo.Save(ctx, tx); err != nil {
		return nil, &StorageError{Op: "save", Err: err}
	}

	slog.Debug("recorded transaction", "id", tx.ID, "kind", tx.Kind, "category", tx.Category)

	return tx, nil
}

// RecordBatch validates every item before building any of them and stores the batch in a single
// repository call, so either all items are kept or none.
func (s *Service) RecordBatch(ctx context.Context, userID uuid.UUID, ins []transaction.Input) ([]*transaction.Transaction, error) {
	if len(ins) == 0 {
		return nil, &ValidationError{Field: "transactions", Reason: "must not be empty"}
	}

	if err := validateAll(ins); err != nil {
		return nil, err
	}

	txs := make([]*transaction.Transaction, len(ins))
	for i, in := range ins {
		txs[i] = s.build(ctx, userID, in)
	}

	if err := s.repo.SaveBatch(ctx, txs); err != nil {
		return nil, &StorageError{Op: "save batch", Err: err}
	}

	slog.Debug("recorded transaction batch", "count", len(txs))

	return txs, nil
}

func validateAll(ins []transaction.Input) error {
	for i, in := range ins {
		if err := Validate(in); err != nil {
			return &BatchItemError{Index: i, Err: err}
		}
	}

	return nil
}

func (s *Service) build(ctx context.Context, userID uuid.UUID, in transaction.Input) *transaction.Transaction {
	now := s.now()

	tags := []string{}
	if len(in.Tags) > 0 {
		tags = slices.Clone(in.Tags)
	}

	return &transaction.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Category:    s.category(ctx, userID, in),
		Description: in.Description,
		Tags:        tags,
		OccurredAt:  s.occurredAt(in, now),
		CreatedAt:   now.Truncate(time.Second),
	}
}

func (s *Service) occurredAt(in transaction.Input, now time.Time) time.Time {
	if in.OccurredAt != nil {
		if reldate.HasRelativeDate(in.Description) {
			slog.Debug("explicit timestamp overrides relative date in description",
				"description", in.Description, "timestamp", in.OccurredAt.Format(transaction.TimestampLayout))
		}

		return in.OccurredAt.Truncate(time.Second)
	}

	if r := s.resolver.Resolve(in.Description, now); r.Found {
		return r.Time
	}

	return now.Truncate(time.Second)
}

func (s *Service) category(ctx context.Context, userID uuid.UUID, in transaction.Input) string {
	if c := strings.TrimSpace(in.Category); c != "" {
		return c
	}

	if s.matcher != nil {
		c, err := s.matcher.Match(ctx, userID, in.Kind, in.Description)
		if err != nil {
			slog.Warn("category mapping lookup failed", "error", err)
		} else if c != "" {
			return c
		}
	}

	return s.classifier.Classify(in.Description, in.Kind)
}

// CheckDuplicate compares candidate with the records of the last hoursBack hours. Zero or
// negative hoursBack uses the configured lookback.
func (s *Service) CheckDuplicate(ctx context.Context, userID uuid.UUID, candidate transaction.Input, hoursBack int) (duplicate.Result, error) {
	window := s.lookback
	if hoursBack > 0 {
		window = time.Duration(hoursBack) * time.Hour
	}

	return s.CheckDuplicateSince(ctx, userID, candidate, s.now().Add(-window))
}

// CheckDuplicateToday compares candidate with the records since local midnight.
func (s *Service) CheckDuplicateToday(ctx context.Context, userID uuid.UUID, candidate transaction.Input) (duplicate.Result, error) {
	start, _ := transaction.DayBounds(s.now())

	return s.CheckDuplicateSince(ctx, userID, candidate, start)
}

func (s *Service) CheckDuplicateSince(ctx context.Context, userID uuid.UUID, candidate transaction.Input, since time.Time) (duplicate.Result, error) {
	if err := Validate(candidate); err != nil {
		return duplicate.Result{}, err
	}

	pool, err := s.repo.List(ctx, userID, transaction.ListFilter{StartDate: &since})
	if err != nil {
		return duplicate.Result{}, &StorageError{Op: "list", Err: err}
	}

	return s.detector.FindSimilar(candidate, pool), nil
}
