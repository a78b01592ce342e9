package export_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jizhang-jingling/jizhang/internal/export"
	"github.com/jizhang-jingling/jizhang/internal/importer/csvbill"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

var userID = uuid.MustParse("6f1c2a8e-4f0d-4d43-9a51-8c1e0b7a2d11")

func sample() []*transaction.Transaction {
	return []*transaction.Transaction{
		{
			ID:          "a",
			Kind:        transaction.KindExpense,
			Amount:      decimal.RequireFromString("35"),
			Category:    "餐饮美食",
			Description: "午餐, 外卖",
			Tags:        []string{"工作日", "外卖"},
			OccurredAt:  time.Date(2026, 2, 1, 12, 0, 0, 0, time.Local),
		},
		{
			ID:          "b",
			Kind:        transaction.KindIncome,
			Amount:      decimal.RequireFromString("8000.5"),
			Category:    "工资薪酬",
			Description: "二月工资",
			OccurredAt:  time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, sample()))

	want := "时间,类型,金额,分类,描述,标签\n" +
		"2026-02-01 12:00:00,支出,35.00,餐饮美食,\"午餐, 外卖\",工作日;外卖\n" +
		"2026-02-01 09:00:00,收入,8000.50,工资薪酬,二月工资,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_RoundTripsThroughImporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, sample()))

	ins, err := csvbill.NewParser(csvbill.ProfileJizhang).Parse(&buf)
	require.NoError(t, err)
	require.Len(t, ins, 2)

	for i, tx := range sample() {
		assert.Equal(t, tx.Kind, ins[i].Kind)
		assert.True(t, tx.Amount.Equal(ins[i].Amount))
		assert.Equal(t, tx.Category, ins[i].Category)
		assert.Equal(t, tx.Description, ins[i].Description)
		assert.Equal(t, tx.OccurredAt, *ins[i].OccurredAt)
	}

	assert.Equal(t, []string{"工作日", "外卖"}, ins[0].Tags)
}

func TestGenerateSummary(t *testing.T) {
	got := export.GenerateSummary(sample())

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "* 2026-02-01 | 餐饮美食 | 午餐, 外卖 | -¥35.00", lines[0])
	assert.Equal(t, "* 2026-02-01 | 工资薪酬 | 二月工资 | +¥8000.50", lines[1])
	assert.Equal(t, "共 2 笔 | 收入 ¥8000.50 | 支出 ¥35.00 | 结余 ¥7965.50", lines[2])
}

func TestService_ExportFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	repo.EXPECT().
		List(gomock.Any(), userID, transaction.ListFilter{Category: "餐饮美食"}).
		Return(sample()[:1], nil)

	dir := filepath.Join(t.TempDir(), "out")

	svc := export.NewService(transaction.NewService(repo))
	path, txs, err := svc.ExportFile(context.Background(), userID, transaction.ListFilter{Category: "餐饮美食", Limit: 10, Offset: 20}, dir)
	require.NoError(t, err)

	assert.Len(t, txs, 1)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "jizhang_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "午餐")
}

func TestService_ExportListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	repo.EXPECT().List(gomock.Any(), userID, transaction.ListFilter{}).Return(nil, errors.New("db down"))

	_, err := export.NewService(transaction.NewService(repo)).Export(context.Background(), userID, transaction.ListFilter{})
	assert.ErrorContains(t, err, "db down")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "jizhang_20260201_090500.csv", export.Filename(time.Date(2026, 2, 1, 9, 5, 0, 0, time.Local)))
}
