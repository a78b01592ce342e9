package intake

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type ImportResult struct {
	Imported  []*transaction.Transaction
	New       []transaction.Input
	Conflicts []Conflict
}

// Conflict is an incoming item that strongly resembles a record from the same day.
type Conflict struct {
	Incoming transaction.Input
	Matches  []duplicate.Match
}

// ImportBatch stores a batch of bill rows unless one of them strongly resembles an existing
// record from the same day. In that case nothing is written and the caller gets the clean
// items and the conflicts back, to confirm a selection through RecordBatch.
func (s *Service) ImportBatch(ctx context.Context, userID uuid.UUID, ins []transaction.Input) (*ImportResult, error) {
	if len(ins) == 0 {
		return &ImportResult{}, nil
	}

	if err := validateAll(ins); err != nil {
		return nil, err
	}

	now := s.now()

	days := make([]time.Time, len(ins))
	for i, in := range ins {
		days[i] = s.occurredAt(in, now)
	}

	start, end := dayRange(days)

	existing, err := s.repo.List(ctx, userID, transaction.ListFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	byDay := make(map[string][]*transaction.Transaction)
	for _, tx := range existing {
		key := tx.OccurredAt.Local().Format(time.DateOnly)
		byDay[key] = append(byDay[key], tx)
	}

	var (
		fresh     []transaction.Input
		conflicts []Conflict
	)

	for i, in := range ins {
		pool := byDay[days[i].Local().Format(time.DateOnly)]

		res := s.detector.FindSimilar(in, pool)
		if res.Level == duplicate.LevelStrong {
			conflicts = append(conflicts, Conflict{Incoming: in, Matches: res.Matches})
			continue
		}

		fresh = append(fresh, in)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: fresh, Conflicts: conflicts}, nil
	}

	txs, err := s.RecordBatch(ctx, userID, ins)
	if err != nil {
		return nil, err
	}

	return &ImportResult{Imported: txs}, nil
}

func dayRange(times []time.Time) (time.Time, time.Time) {
	minT, maxT := times[0], times[0]

	for _, t := range times[1:] {
		if t.Before(minT) {
			minT = t
		}

		if t.After(maxT) {
			maxT = t
		}
	}

	start, _ := transaction.DayBounds(minT)
	_, end := transaction.DayBounds(maxT)

	return start, end
}
