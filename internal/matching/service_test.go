package matching_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

var userID = uuid.MustParse("e2a4c6b8-1d3f-4a5b-8c7d-9e0f1a2b3c4d")

func TestService_MatchCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := matching.NewMockRepository(ctrl)

	repo.EXPECT().
		FindMatch(gomock.Any(), userID, transaction.KindExpense, "瑞幸咖啡").
		Return("咖啡", nil).
		Times(1)

	repo.EXPECT().
		FindMatch(gomock.Any(), userID, transaction.KindExpense, "便利店").
		Return("", nil).
		Times(1)

	svc := matching.NewService(repo)
	ctx := context.Background()

	for range 3 {
		got, err := svc.Match(ctx, userID, transaction.KindExpense, "瑞幸咖啡")
		require.NoError(t, err)
		assert.Equal(t, "咖啡", got)

		got, err = svc.Match(ctx, userID, transaction.KindExpense, "便利店")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestService_MatchErrorIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := matching.NewMockRepository(ctrl)

	gomock.InOrder(
		repo.EXPECT().FindMatch(gomock.Any(), userID, transaction.KindExpense, "x").Return("", errors.New("db down")),
		repo.EXPECT().FindMatch(gomock.Any(), userID, transaction.KindExpense, "x").Return("其他", nil),
	)

	svc := matching.NewService(repo)

	_, err := svc.Match(context.Background(), userID, transaction.KindExpense, "x")
	assert.Error(t, err)

	got, err := svc.Match(context.Background(), userID, transaction.KindExpense, "x")
	require.NoError(t, err)
	assert.Equal(t, "其他", got)
}

func TestService_Learn(t *testing.T) {
	type testCase struct {
		name      string
		mapping   matching.Mapping
		setupMock func(m *matching.MockRepository)
		wantErr   error
		anyErr    bool
	}

	tests := []testCase{
		{
			name:    "Success",
			mapping: matching.Mapping{UserID: userID, Kind: transaction.KindExpense, Pattern: " 瑞幸 ", Category: "咖啡"},
			setupMock: func(m *matching.MockRepository) {
				m.EXPECT().CreateMapping(gomock.Any(), matching.Mapping{
					UserID: userID, Kind: transaction.KindExpense, Pattern: "瑞幸", Category: "咖啡",
				}).Return(nil)
			},
		},
		{
			name:    "MissingPattern",
			mapping: matching.Mapping{UserID: userID, Kind: transaction.KindExpense, Category: "咖啡"},
			wantErr: matching.ErrInvalidMapping,
		},
		{
			name:    "InvalidKind",
			mapping: matching.Mapping{UserID: userID, Kind: "gift", Pattern: "a", Category: "b"},
			wantErr: matching.ErrInvalidMapping,
		},
		{
			name:    "RepoError",
			mapping: matching.Mapping{UserID: userID, Kind: transaction.KindIncome, Pattern: "a", Category: "b"},
			setupMock: func(m *matching.MockRepository) {
				m.EXPECT().CreateMapping(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := matching.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			err := matching.NewService(repo).Learn(context.Background(), tt.mapping)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_LearnInvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := matching.NewMockRepository(ctrl)

	gomock.InOrder(
		repo.EXPECT().FindMatch(gomock.Any(), userID, transaction.KindExpense, "瑞幸咖啡").Return("", nil),
		repo.EXPECT().CreateMapping(gomock.Any(), gomock.Any()).Return(nil),
		repo.EXPECT().FindMatch(gomock.Any(), userID, transaction.KindExpense, "瑞幸咖啡").Return("咖啡", nil),
	)

	svc := matching.NewService(repo)
	ctx := context.Background()

	got, err := svc.Match(ctx, userID, transaction.KindExpense, "瑞幸咖啡")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, svc.Learn(ctx, matching.Mapping{UserID: userID, Kind: transaction.KindExpense, Pattern: "瑞幸", Category: "咖啡"}))

	got, err = svc.Match(ctx, userID, transaction.KindExpense, "瑞幸咖啡")
	require.NoError(t, err)
	assert.Equal(t, "咖啡", got)
}

func TestBest(t *testing.T) {
	mappings := []matching.Mapping{
		{Pattern: "瑞幸", Category: "咖啡"},
		{Pattern: "瑞幸咖啡", Category: "饮品"},
		{Pattern: "_", Category: "下划线"},
		{Pattern: "%", Category: "百分号"},
		{Pattern: "Costa", Category: "咖啡馆"},
		{Pattern: "瑞幸", Category: "旧分类"},
	}

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "LongestWins", description: "瑞幸咖啡拿铁", want: "饮品"},
		{name: "ShorterWhenOnlyItMatches", description: "瑞幸外卖", want: "咖啡"},
		{name: "CaseInsensitive", description: "COSTA 美式", want: "咖啡馆"},
		{name: "UnderscoreIsLiteral", description: "便利店", want: ""},
		{name: "PercentIsLiteral", description: "打车", want: ""},
		{name: "LiteralUnderscoreMatches", description: "item_12", want: "下划线"},
		{name: "NoMappings", description: "午餐", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matching.Best(mappings, tt.description))
		})
	}

	assert.Empty(t, matching.Best(nil, "瑞幸"))
}
