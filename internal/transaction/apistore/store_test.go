package apistore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/transaction/apistore"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

func newStore(t *testing.T, h http.HandlerFunc) *apistore.Store {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return apistore.New(srv.URL+"/api/v1/", "tok", apistore.WithRetries(2), apistore.WithBackoff(time.Millisecond))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestStore_Save(t *testing.T) {
	occurred := time.Date(2024, 6, 7, 14, 25, 36, 0, time.Local)
	created := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/transactions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var in wire.Input
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "2024-06-07 14:25:36", in.Timestamp)
		assert.Equal(t, "购物消费", in.Category)

		writeJSON(t, w, http.StatusCreated, wire.Transaction{
			ID: "server-id", Type: in.Type, Amount: in.Amount, Category: in.Category,
			Description: in.Description, Timestamp: in.Timestamp, CreatedAt: created,
		})
	})

	tx := &transaction.Transaction{
		ID: "local-id", Kind: transaction.KindExpense, Amount: decimal.RequireFromString("35"),
		Category: "购物消费", Description: "大前天买书花了35块", OccurredAt: occurred,
	}

	require.NoError(t, s.Save(context.Background(), tx))
	assert.Equal(t, "server-id", tx.ID)
	assert.True(t, created.Equal(tx.CreatedAt))
}

func TestStore_SaveIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	s := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := s.Save(context.Background(), &transaction.Transaction{Kind: transaction.KindExpense, Amount: decimal.NewFromInt(1), Description: "x"})
	require.Error(t, err)

	var se *apistore.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_SaveBatch(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/batch", r.URL.Path)

		var batch wire.Batch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))

		out := wire.BatchResult{Count: len(batch.Transactions)}
		for i, in := range batch.Transactions {
			out.Transactions = append(out.Transactions, wire.Transaction{
				ID: "srv-" + string(rune('a'+i)), Type: in.Type, Amount: in.Amount, Timestamp: in.Timestamp,
			})
		}

		writeJSON(t, w, http.StatusCreated, out)
	})

	now := time.Now()
	txs := []*transaction.Transaction{
		{Kind: transaction.KindExpense, Amount: decimal.NewFromInt(1), Description: "a", OccurredAt: now},
		{Kind: transaction.KindExpense, Amount: decimal.NewFromInt(2), Description: "b", OccurredAt: now},
	}

	require.NoError(t, s.SaveBatch(context.Background(), txs))
	assert.Equal(t, "srv-a", txs[0].ID)
	assert.Equal(t, "srv-b", txs[1].ID)
}

func TestStore_ListRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	since := time.Date(2024, 6, 9, 14, 0, 0, 0, time.Local)
	expense := transaction.KindExpense

	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		assert.Equal(t, "2024-06-09 14:00:00", r.URL.Query().Get("start_date"))
		assert.Equal(t, "expense", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		writeJSON(t, w, http.StatusOK, []wire.Transaction{{
			ID: "t1", Type: transaction.KindExpense, Amount: decimal.NewFromInt(7), Description: "早餐",
			Category: "餐饮美食", Timestamp: "2024-06-10 08:00:00",
		}})
	})

	got, err := s.List(context.Background(), uuid.Nil, transaction.ListFilter{Kind: &expense, StartDate: &since, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "早餐", got[0].Description)
	assert.True(t, time.Date(2024, 6, 10, 8, 0, 0, 0, time.Local).Equal(got[0].OccurredAt))
}

func TestStore_ListGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32

	s := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := s.List(context.Background(), uuid.Nil, transaction.ListFilter{})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestStore_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32

	s := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, wire.Error{Error: "invalid token"})
	})

	_, err := s.List(context.Background(), uuid.Nil, transaction.ListFilter{})

	var se *apistore.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid token", se.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_NotFound(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, wire.Error{Error: "transaction not found"})
	})

	_, err := s.Get(context.Background(), uuid.Nil, "missing")
	assert.ErrorIs(t, err, transaction.ErrNotFound)

	assert.ErrorIs(t, s.Delete(context.Background(), uuid.Nil, "missing"), transaction.ErrNotFound)

	n, err := s.DeleteBatch(context.Background(), uuid.Nil, []string{"missing"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_DeleteBatch(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/delete-batch", r.URL.Path)

		var req wire.DeleteBatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.IDs)

		writeJSON(t, w, http.StatusOK, wire.DeleteBatchResult{Deleted: 2})
	})

	n, err := s.DeleteBatch(context.Background(), uuid.Nil, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_RespectsContext(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, uuid.Nil, transaction.ListFilter{})
	assert.Error(t, err)
}

func TestStore_Me(t *testing.T) {
	id := uuid.MustParse("0d3c5b8e-9a51-4a7e-8f0d-2f6c1e0b7a2d")

	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"id": id, "email": "a@b.cn"})
	})

	got, err := s.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	unauthorized := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, wire.Error{Error: "missing token"})
	})

	_, err = unauthorized.Me(context.Background())

	var se *apistore.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
