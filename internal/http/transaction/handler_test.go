package transaction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jizhang-jingling/jizhang/internal/auth"
	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	txhttp "github.com/jizhang-jingling/jizhang/internal/http/transaction"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

var (
	userID = uuid.MustParse("6f1c2a8e-4f0d-4d43-9a51-8c1e0b7a2d11")
	now    = time.Date(2026, 3, 14, 15, 30, 0, 0, time.Local)
)

func clock() time.Time { return now }

func newServer(t *testing.T, authenticated bool) (*httptest.Server, *transaction.MockRepository) {
	t.Helper()

	repo := transaction.NewMockRepository(gomock.NewController(t))

	h := txhttp.NewHandler(
		intake.NewService(repo, intake.WithClock(clock)),
		transaction.NewService(repo).WithClock(clock),
	)

	r := chi.NewRouter()
	if authenticated {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
			})
		})
	}

	r.Route("/transactions", h.Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, repo
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestHandler_Record(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			assert.Equal(t, userID, tx.UserID)
			return nil
		})

	resp := do(t, srv, http.MethodPost, "/transactions", `{"type":"expense","amount":35,"description":"昨天午餐"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[wire.Transaction](t, resp)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "餐饮美食", got.Category)
	assert.Equal(t, "昨天午餐", got.Description)
	assert.Equal(t, "2026-03-13 15:30:00", got.Timestamp)
	assert.True(t, decimal.NewFromInt(35).Equal(got.Amount))
	assert.Equal(t, []string{}, got.Tags)
}

func TestHandler_Record_Validation(t *testing.T) {
	srv, _ := newServer(t, true)

	resp := do(t, srv, http.MethodPost, "/transactions", `{"type":"expense","amount":0,"description":"午餐"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decode[wire.Error](t, resp)
	assert.Equal(t, "amount", got.Field)
}

func TestHandler_Record_MalformedBody(t *testing.T) {
	srv, _ := newServer(t, true)

	resp := do(t, srv, http.MethodPost, "/transactions", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Unauthenticated(t *testing.T) {
	srv, _ := newServer(t, false)

	resp := do(t, srv, http.MethodGet, "/transactions", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RecordBatch_ItemError(t *testing.T) {
	srv, _ := newServer(t, true)

	body := `{"transactions":[
		{"type":"expense","amount":"12.5","description":"奶茶"},
		{"type":"expense","amount":"8","description":"   "}
	]}`

	resp := do(t, srv, http.MethodPost, "/transactions/batch", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got := decode[wire.Error](t, resp)
	require.NotNil(t, got.Index)
	assert.Equal(t, 1, *got.Index)
	assert.Equal(t, "description", got.Field)
}

func TestHandler_RecordBatch(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().SaveBatch(gomock.Any(), gomock.Len(2)).Return(nil)

	body := `{"transactions":[
		{"type":"expense","amount":"12.5","description":"奶茶","timestamp":"2026-03-14 10:00:00"},
		{"type":"income","amount":"8000","description":"三月工资","tags":["固定"]}
	]}`

	resp := do(t, srv, http.MethodPost, "/transactions/batch", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[wire.BatchResult](t, resp)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "2026-03-14 10:00:00", got.Transactions[0].Timestamp)
	assert.Equal(t, "工资收入", got.Transactions[1].Category)
	assert.Equal(t, []string{"固定"}, got.Transactions[1].Tags)
}

func TestHandler_CheckDuplicate(t *testing.T) {
	existing := &transaction.Transaction{
		ID:          "e1",
		Kind:        transaction.KindExpense,
		Amount:      decimal.NewFromInt(35),
		Category:    "餐饮美食",
		Description: "午餐",
		OccurredAt:  now.Add(-time.Hour),
	}

	tests := []struct {
		name      string
		path      string
		body      string
		wantStart time.Time
	}{
		{
			name:      "TodayScope",
			path:      "/transactions/check-duplicate?scope=today",
			body:      `{"type":"expense","amount":35,"description":"午餐"}`,
			wantStart: time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local),
		},
		{
			name:      "HoursBackInBody",
			path:      "/transactions/check-duplicate",
			body:      `{"type":"expense","amount":35,"description":"午餐","hours_back":6}`,
			wantStart: now.Add(-6 * time.Hour),
		},
		{
			name:      "DefaultWindow",
			path:      "/transactions/check-duplicate",
			body:      `{"type":"expense","amount":35,"description":"午餐"}`,
			wantStart: now.Add(-24 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, repo := newServer(t, true)

			repo.EXPECT().List(gomock.Any(), userID, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ uuid.UUID, f transaction.ListFilter) ([]*transaction.Transaction, error) {
					require.NotNil(t, f.StartDate)
					assert.True(t, tt.wantStart.Equal(*f.StartDate))

					return []*transaction.Transaction{existing}, nil
				})

			resp := do(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			got := decode[wire.DuplicateCheck](t, resp)
			assert.True(t, got.HasSimilar)
			assert.Equal(t, duplicate.LevelStrong, got.Level)
			require.Len(t, got.Matches, 1)
			assert.Equal(t, "e1", got.Matches[0].Transaction.ID)
		})
	}
}

func TestHandler_List(t *testing.T) {
	expense := transaction.KindExpense

	tests := []struct {
		name       string
		query      string
		wantFilter *transaction.ListFilter
		wantStatus int
	}{
		{
			name:       "Pagination",
			query:      "?type=expense&category=%E9%A4%90%E9%A5%AE%E7%BE%8E%E9%A3%9F&page=3&limit=10",
			wantFilter: &transaction.ListFilter{Kind: &expense, Category: "餐饮美食", Limit: 10, Offset: 20},
			wantStatus: http.StatusOK,
		},
		{
			name:  "DateOnlyEndCoversDay",
			query: "?start_date=2026-03-01&end_date=2026-03-02",
			wantFilter: &transaction.ListFilter{
				StartDate: new(time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)),
				EndDate:   new(time.Date(2026, 3, 2, 23, 59, 59, 0, time.Local)),
			},
			wantStatus: http.StatusOK,
		},
		{name: "BadType", query: "?type=transfer", wantStatus: http.StatusBadRequest},
		{name: "BadLimit", query: "?limit=-1", wantStatus: http.StatusBadRequest},
		{name: "BadDate", query: "?start_date=yesterday", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, repo := newServer(t, true)

			if tt.wantFilter != nil {
				repo.EXPECT().List(gomock.Any(), userID, *tt.wantFilter).
					Return([]*transaction.Transaction{{ID: "a", Kind: transaction.KindExpense, OccurredAt: now}}, nil)
			}

			resp := do(t, srv, http.MethodGet, "/transactions"+tt.query, "")
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusOK {
				got := decode[[]wire.Transaction](t, resp)
				assert.Len(t, got, 1)
			}
		})
	}
}

func TestHandler_Summary(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().List(gomock.Any(), userID, transaction.ListFilter{}).Return([]*transaction.Transaction{
		{ID: "a", Kind: transaction.KindIncome, Amount: decimal.NewFromInt(100), Category: "工资收入"},
		{ID: "b", Kind: transaction.KindExpense, Amount: decimal.NewFromInt(30), Category: "餐饮美食"},
	}, nil)

	resp := do(t, srv, http.MethodGet, "/transactions/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[wire.Summary](t, resp)
	assert.True(t, decimal.NewFromInt(70).Equal(got.Balance))
	assert.Equal(t, 2, got.Count)
	assert.Len(t, got.ByCategory, 2)
}

func TestHandler_GetNotFound(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().Get(gomock.Any(), userID, "missing").Return(nil, transaction.ErrNotFound)

	resp := do(t, srv, http.MethodGet, "/transactions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Delete(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().Delete(gomock.Any(), userID, "a").Return(nil)

	resp := do(t, srv, http.MethodDelete, "/transactions/a", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandler_DeleteBatch(t *testing.T) {
	srv, repo := newServer(t, true)

	repo.EXPECT().DeleteBatch(gomock.Any(), userID, []string{"a", "b"}).Return(2, nil)

	resp := do(t, srv, http.MethodPost, "/transactions/delete-batch", `{"ids":["a","b"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[wire.DeleteBatchResult](t, resp)
	assert.Equal(t, 2, got.Deleted)
}
