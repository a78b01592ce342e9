package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

var userID = uuid.MustParse("6f1c2a8e-4f0d-4d43-9a51-8c1e0b7a2d11")

func TestService_List(t *testing.T) {
	type args struct {
		filter transaction.ListFilter
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantLen   int
		wantErr   bool
	}

	expense := transaction.KindExpense

	tests := []testCase{
		{
			name: "Success",
			args: args{filter: transaction.ListFilter{Kind: &expense}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					List(gomock.Any(), userID, transaction.ListFilter{Kind: &expense}).
					Return([]*transaction.Transaction{{ID: "a"}, {ID: "b"}}, nil)
			},
			wantLen: 2,
		},
		{
			name: "Error",
			args: args{filter: transaction.ListFilter{}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					List(gomock.Any(), userID, transaction.ListFilter{}).
					Return(nil, errors.New("list error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := transaction.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := transaction.NewService(repo).List(context.Background(), userID, tt.args.filter)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_Today(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	now := time.Date(2024, 6, 10, 14, 30, 0, 0, time.Local)
	wantStart := time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2024, 6, 10, 23, 59, 59, 0, time.Local)

	repo.EXPECT().
		List(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, f transaction.ListFilter) ([]*transaction.Transaction, error) {
			require.NotNil(t, f.StartDate)
			require.NotNil(t, f.EndDate)
			assert.True(t, f.StartDate.Equal(wantStart))
			assert.True(t, f.EndDate.Equal(wantEnd))

			return []*transaction.Transaction{{ID: "a"}}, nil
		})

	svc := transaction.NewService(repo).WithClock(func() time.Time { return now })

	got, err := svc.Today(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_DeleteBatch(t *testing.T) {
	type testCase struct {
		name      string
		ids       []string
		setupMock func(m *transaction.MockRepository)
		want      int
		wantErr   error
		anyErr    bool
	}

	tests := []testCase{
		{
			name: "Deleted",
			ids:  []string{"a", "b"},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().DeleteBatch(gomock.Any(), userID, []string{"a", "b"}).Return(2, nil)
			},
			want: 2,
		},
		{
			name: "NothingMatched",
			ids:  []string{"missing"},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().DeleteBatch(gomock.Any(), userID, []string{"missing"}).Return(0, nil)
			},
			wantErr: transaction.ErrNotFound,
		},
		{
			name:   "EmptyList",
			ids:    nil,
			anyErr: true,
		},
		{
			name:   "BlankID",
			ids:    []string{"a", " "},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := transaction.NewService(repo).DeleteBatch(context.Background(), userID, tt.ids)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	txs := []*transaction.Transaction{
		{Kind: transaction.KindExpense, Amount: decimal.RequireFromString("35"), Category: "餐饮美食"},
		{Kind: transaction.KindExpense, Amount: decimal.RequireFromString("12.5"), Category: "餐饮美食"},
		{Kind: transaction.KindExpense, Amount: decimal.RequireFromString("120"), Category: "交通出行"},
		{Kind: transaction.KindIncome, Amount: decimal.RequireFromString("8000"), Category: "工资收入"},
	}

	got := transaction.Summarize(txs)

	assert.Equal(t, 4, got.Count)
	assert.True(t, got.TotalIncome.Equal(decimal.RequireFromString("8000")))
	assert.True(t, got.TotalExpense.Equal(decimal.RequireFromString("167.5")))
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("7832.5")))

	require.Len(t, got.ByCategory, 3)
	assert.Equal(t, "工资收入", got.ByCategory[0].Category)
	assert.Equal(t, "交通出行", got.ByCategory[1].Category)
	assert.Equal(t, "餐饮美食", got.ByCategory[2].Category)
	assert.Equal(t, 2, got.ByCategory[2].Count)
}

func TestSummarize_Empty(t *testing.T) {
	got := transaction.Summarize(nil)

	assert.Zero(t, got.Count)
	assert.True(t, got.Balance.IsZero())
	assert.Empty(t, got.ByCategory)
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, transaction.KindIncome.Valid())
	assert.True(t, transaction.KindExpense.Valid())
	assert.False(t, transaction.Kind("transfer").Valid())
	assert.False(t, transaction.Kind("").Valid())
}
