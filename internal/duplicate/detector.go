// Package duplicate flags likely repeat entries by scoring a candidate transaction against
// recently recorded ones.
package duplicate

import (
	"fmt"
	"slices"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const DefaultThreshold = 0.5

type Level string

const (
	LevelSafe     Level = "safe"
	LevelWeak     Level = "weak"
	LevelModerate Level = "moderate"
	LevelStrong   Level = "strong"
)

const (
	strongFrom   = 0.8
	moderateFrom = 0.6
)

type Classifier interface {
	Classify(description string, kind transaction.Kind) string
}

type Match struct {
	Transaction *transaction.Transaction
	Similarity  float64
}

type Result struct {
	HasSimilar bool
	Matches    []Match
	Level      Level
	Suggestion string
}

// Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	classifier Classifier
	threshold  float64
}

type Option func(*Detector)

// WithThreshold sets the score a match must strictly exceed.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		d.threshold = t
	}
}

func New(classifier Classifier, opts ...Option) *Detector {
	d := &Detector{classifier: classifier, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Threshold is the similarity a pool record must exceed to be reported.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// FindSimilar scores candidate against every pool member and keeps those above the threshold,
// most similar first. Equal scores keep pool order.
func (d *Detector) FindSimilar(candidate transaction.Input, pool []*transaction.Transaction) Result {
	var matches []Match

	for _, tx := range pool {
		s := d.Similarity(inputOf(tx), candidate)
		if s > d.threshold {
			matches = append(matches, Match{Transaction: tx, Similarity: s})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})

	level, count := classify(matches)

	return Result{
		HasSimilar: len(matches) > 0,
		Matches:    matches,
		Level:      level,
		Suggestion: suggestion(level, count),
	}
}

func inputOf(tx *transaction.Transaction) transaction.Input {
	return transaction.Input{
		Kind:        tx.Kind,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
	}
}

// classify returns the level and how many matches sit in that level's band.
func classify(matches []Match) (Level, int) {
	if len(matches) == 0 {
		return LevelSafe, 0
	}

	var strong, moderate int

	for _, m := range matches {
		switch {
		case m.Similarity >= strongFrom:
			strong++
		case m.Similarity >= moderateFrom:
			moderate++
		}
	}

	switch {
	case strong > 0:
		return LevelStrong, strong
	case moderate > 0:
		return LevelModerate, moderate
	default:
		return LevelWeak, len(matches)
	}
}

func suggestion(level Level, count int) string {
	switch level {
	case LevelStrong:
		return fmt.Sprintf("发现 %d 条高度相似的交易记录，强烈建议确认是否重复添加", count)
	case LevelModerate:
		return fmt.Sprintf("发现 %d 条可能相似的交易记录，建议确认是否重复添加", count)
	case LevelWeak:
		return fmt.Sprintf("发现 %d 条疑似相似的交易记录，请确认是否重复添加", count)
	default:
		return "未发现相似交易记录，可以安全添加"
	}
}
