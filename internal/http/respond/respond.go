// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/auth"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/user"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Message writes a plain error message with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, wire.Error{Error: msg})
}

// Error maps err onto a status code. Unknown errors are logged and reported as 500 without
// leaking their text.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		itemErr  *intake.BatchItemError
		validErr *intake.ValidationError
	)

	switch {
	case errors.As(err, &itemErr):
		body := wire.Error{Error: err.Error(), Index: new(itemErr.Index)}
		if errors.As(itemErr.Err, &validErr) {
			body.Field = validErr.Field
		}

		JSON(w, http.StatusBadRequest, body)
	case errors.As(err, &validErr):
		JSON(w, http.StatusBadRequest, wire.Error{Error: err.Error(), Field: validErr.Field})
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, user.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		Message(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, matching.ErrInvalidMapping):
		Message(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode reads a JSON request body into v, answering 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	return true
}

// UserID returns the authenticated caller, answering 401 when the context carries none.
func UserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	uid, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		Message(w, http.StatusUnauthorized, err.Error())
		return uuid.Nil, false
	}

	return uid, true
}
