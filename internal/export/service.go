package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/importer/csvbill"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// Service handles the export of transactions.
type Service struct {
	transactions *transaction.Service
	now          func() time.Time
}

// NewService creates a new export Service.
func NewService(txService *transaction.Service) *Service {
	return &Service{
		transactions: txService,
		now:          time.Now,
	}
}

// Export lists every transaction matching the filter, ignoring pagination.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	filter.Limit, filter.Offset = 0, 0

	txs, err := s.transactions.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return txs, nil
}

// ExportFile writes the matching transactions as CSV into outputDir. It returns the file path
// and the exported transactions.
func (s *Service) ExportFile(ctx context.Context, userID uuid.UUID, filter transaction.ListFilter, outputDir string) (string, []*transaction.Transaction, error) {
	txs, err := s.Export(ctx, userID, filter)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, Filename(s.now()))

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, txs); err != nil {
		return "", nil, err
	}

	return path, txs, nil
}

// Filename names an export file after the moment it was produced.
func Filename(t time.Time) string {
	return "jizhang_" + t.Format("20060102_150405") + ".csv"
}

// WriteCSV writes txs in the jizhang bill layout, which the importer reads back.
func WriteCSV(w io.Writer, txs []*transaction.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvbill.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.Timestamp(),
			csvbill.KindLabel(tx.Kind),
			tx.Amount.StringFixed(2),
			tx.Category,
			tx.Description,
			strings.Join(tx.Tags, csvbill.TagSeparator),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// GenerateSummary renders one line per transaction followed by the totals.
func GenerateSummary(txs []*transaction.Transaction) string {
	var sb strings.Builder

	for _, tx := range txs {
		sign := "-"
		if tx.Kind == transaction.KindIncome {
			sign = "+"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s¥%s\n",
			tx.OccurredAt.Local().Format("2006-01-02"), tx.Category, tx.Description, sign, tx.Amount.StringFixed(2))
	}

	sum := transaction.Summarize(txs)
	fmt.Fprintf(&sb, "共 %d 笔 | 收入 ¥%s | 支出 ¥%s | 结余 ¥%s\n",
		sum.Count, sum.TotalIncome.StringFixed(2), sum.TotalExpense.StringFixed(2), sum.Balance.StringFixed(2))

	return sb.String()
}
