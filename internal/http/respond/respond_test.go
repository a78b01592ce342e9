package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/http/respond"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/user"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
		wantIndex  *int
		wantMsg    string
	}{
		{
			name:       "Validation",
			err:        &intake.ValidationError{Field: "amount", Reason: "must be greater than 0"},
			wantStatus: http.StatusBadRequest,
			wantField:  "amount",
			wantMsg:    "invalid amount: must be greater than 0",
		},
		{
			name:       "BatchItem",
			err:        &intake.BatchItemError{Index: 2, Err: &intake.ValidationError{Field: "type", Reason: "must be income or expense"}},
			wantStatus: http.StatusBadRequest,
			wantField:  "type",
			wantIndex:  new(2),
		},
		{
			name:       "NotFound",
			err:        fmt.Errorf("get: %w", transaction.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Credentials",
			err:        user.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "EmailTaken",
			err:        user.ErrEmailTaken,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Internal",
			err:        &intake.StorageError{Op: "save", Err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body wire.Error
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantField, body.Field)
			assert.Equal(t, tt.wantIndex, body.Index)

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Error)
			}
		})
	}
}
