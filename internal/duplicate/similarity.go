package duplicate

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const (
	kindWeight        = 0.2
	amountWeight      = 0.3
	descriptionWeight = 0.3
	categoryWeight    = 0.2

	jaccardShare  = 0.7
	sequenceShare = 0.3
)

var (
	amountTolerance = decimal.RequireFromString("0.01")
	maxRelativeDiff = decimal.RequireFromString("0.2")
	two             = decimal.NewFromInt(2)
)

// Similarity scores existing against candidate in [0, 1]. A missing category on either side is
// inferred from its description.
func (d *Detector) Similarity(existing, candidate transaction.Input) float64 {
	score := 0.0

	if existing.Kind == candidate.Kind {
		score += kindWeight
	}

	score += amountWeight * AmountSimilarity(existing.Amount, candidate.Amount)
	score += descriptionWeight * TextSimilarity(existing.Description, candidate.Description)

	if d.category(existing) == d.category(candidate) {
		score += categoryWeight
	}

	return score
}

func (d *Detector) category(in transaction.Input) string {
	if in.Category != "" {
		return in.Category
	}

	return d.classifier.Classify(in.Description, in.Kind)
}

// AmountSimilarity is 1 for amounts within a cent, 1-rel when the difference relative to their
// mean is under 20%, and 0 otherwise.
func AmountSimilarity(a, b decimal.Decimal) float64 {
	diff := a.Sub(b).Abs()
	if diff.LessThan(amountTolerance) {
		return 1
	}

	avg := a.Add(b).Div(two)
	if !avg.IsPositive() {
		return 0
	}

	rel := diff.Div(avg)
	if !rel.LessThan(maxRelativeDiff) {
		return 0
	}

	return decimal.NewFromInt(1).Sub(rel).InexactFloat64()
}

// TextSimilarity blends token-set Jaccard overlap (70%) with positional token agreement (30%).
func TextSimilarity(a, b string) float64 {
	ta, tb := Tokenize(a), Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	return jaccardShare*jaccard(ta, tb) + sequenceShare*sequence(ta, tb)
}

// Tokenize lower-cases s, blanks out everything except CJK ideographs and ASCII letters and
// digits, then splits on whitespace.
func Tokenize(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 0x4e00 && r <= 0x9fa5:
			return r
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, strings.ToLower(s))

	return strings.Fields(cleaned)
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for w := range setA {
		union[w] = struct{}{}
	}

	common := make(map[string]struct{})

	for _, w := range b {
		union[w] = struct{}{}

		if _, ok := setA[w]; ok {
			common[w] = struct{}{}
		}
	}

	return float64(len(common)) / float64(len(union))
}

func sequence(a, b []string) float64 {
	n := min(len(a), len(b))

	matches := 0

	for i := range n {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(max(len(a), len(b)))
}
