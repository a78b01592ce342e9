package csvbill

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	enc "github.com/jizhang-jingling/jizhang/internal/encoding"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// ErrUnknownFormat is returned when no header row matches an allowed profile.
var ErrUnknownFormat = errors.New("no matching bill format found")

var dateLayouts = []string{
	transaction.TimestampLayout,
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2",
}

// Parser reads bill CSV exports and produces transaction inputs.
// It auto-detects which format is being used by matching column headers
// against known profiles.
type Parser struct {
	allowed []string
}

// NewParser returns a parser restricted to the named profiles; no names allows all.
func NewParser(names ...string) *Parser {
	return &Parser{allowed: names}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.Input, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := p.detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("%w: expected columns for %s", ErrUnknownFormat, strings.Join(p.names(), ", "))
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx)
}

func (p *Parser) names() []string {
	if len(p.allowed) > 0 {
		return p.allowed
	}

	return Names()
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches an allowed profile.
// Returns the matched profile, column index map, and header row index.
func (p *Parser) detectProfile(rows [][]string) (*Profile, colIndex, int) {
	allowed := p.names()

	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if !slices.Contains(allowed, profiles[i].Name) {
				continue
			}

			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts inputs from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.Input, error) {
	var ins []transaction.Input

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		occurred, ok := parseDate(row, cols[p.DateCol])
		if !ok {
			continue
		}

		kind, ok := parseKind(cellValue(row, cols[p.KindCol]))
		if !ok {
			continue
		}

		amount, err := parseAmount(cellValue(row, cols[p.AmountCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount: %w", rowNum, err)
		}

		if !amount.IsPositive() {
			continue
		}

		desc := description(p, cols, row)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		in := transaction.Input{
			Kind:        kind,
			Amount:      amount,
			Description: desc,
			OccurredAt:  &occurred,
		}

		if p.CategoryCol != "" {
			in.Category = cellValue(row, cols[p.CategoryCol])
		}

		if p.TagsCol != "" {
			if idx, ok := cols[p.TagsCol]; ok {
				in.Tags = splitTags(cellValue(row, idx))
			}
		}

		ins = append(ins, in)
	}

	return ins, nil
}

// parseDate returns false for empty cells or unparseable values (summary and footer rows).
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseKind maps 收入/支出; neutral values such as "/" and "不计收支" are skipped.
func parseKind(s string) (transaction.Kind, bool) {
	switch s {
	case "收入":
		return transaction.KindIncome, true
	case "支出":
		return transaction.KindExpense, true
	}

	return "", false
}

func description(p *Profile, cols colIndex, row []string) string {
	desc := cellValue(row, cols[p.DescCol])
	if (desc == "" || desc == "/") && p.FallbackDescCol != "" {
		desc = cellValue(row, cols[p.FallbackDescCol])
	}

	if desc == "/" {
		return ""
	}

	return desc
}

func splitTags(s string) []string {
	var tags []string

	for tag := range strings.SplitSeq(s, TagSeparator) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
