// Package apistore implements the transaction repository against a remote jizhang REST API.
// The server derives the user from the bearer token, so the userID arguments are not sent.
package apistore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

type Store struct {
	baseURL string
	token   string
	client  *http.Client
	retries int
	backoff time.Duration
}

type Option func(*Store)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithRetries sets how many extra attempts idempotent requests get.
func WithRetries(n int) Option {
	return func(s *Store) {
		s.retries = max(n, 0)
	}
}

// WithBackoff sets the wait before the first retry. It doubles on every further attempt.
func WithBackoff(d time.Duration) Option {
	return func(s *Store) {
		s.backoff = d
	}
}

func New(baseURL, token string, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		retries: 3,
		backoff: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Code, e.Message)
}

func (s *Store) Save(ctx context.Context, tx *transaction.Transaction) error {
	var out wire.Transaction
	if err := s.do(ctx, http.MethodPost, "/transactions", nil, toInput(tx), &out); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return apply(tx, out)
}

func (s *Store) SaveBatch(ctx context.Context, txs []*transaction.Transaction) error {
	body := wire.Batch{Transactions: make([]wire.Input, len(txs))}
	for i, tx := range txs {
		body.Transactions[i] = toInput(tx)
	}

	var out wire.BatchResult
	if err := s.do(ctx, http.MethodPost, "/transactions/batch", nil, body, &out); err != nil {
		return fmt.Errorf("creating transactions: %w", err)
	}

	if len(out.Transactions) != len(txs) {
		return fmt.Errorf("creating transactions: server stored %d of %d", len(out.Transactions), len(txs))
	}

	for i, tx := range txs {
		if err := apply(tx, out.Transactions[i]); err != nil {
			return err
		}
	}

	return nil
}

// toInput pins category and timestamp so the server stores exactly what intake resolved.
func toInput(tx *transaction.Transaction) wire.Input {
	return wire.Input{
		Type:        tx.Kind,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Tags:        tx.Tags,
		Timestamp:   tx.Timestamp(),
	}
}

// apply copies server-assigned fields onto tx.
func apply(tx *transaction.Transaction, out wire.Transaction) error {
	stored, err := out.ToTransaction()
	if err != nil {
		return fmt.Errorf("decoding stored transaction: %w", err)
	}

	tx.ID = stored.ID
	tx.CreatedAt = stored.CreatedAt

	return nil
}

func (s *Store) Get(ctx context.Context, _ uuid.UUID, id string) (*transaction.Transaction, error) {
	var out wire.Transaction
	if err := s.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, notFound(err, "getting transaction")
	}

	return out.ToTransaction()
}

func (s *Store) List(ctx context.Context, _ uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	q := url.Values{}

	if filter.Kind != nil {
		q.Set("type", string(*filter.Kind))
	}

	if filter.Category != "" {
		q.Set("category", filter.Category)
	}

	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.Local().Format(transaction.TimestampLayout))
	}

	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.Local().Format(transaction.TimestampLayout))
	}

	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	var out []wire.Transaction
	if err := s.do(ctx, http.MethodGet, "/transactions", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(out))

	for _, w := range out {
		tx, err := w.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("decoding transaction %s: %w", w.ID, err)
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

func (s *Store) Delete(ctx context.Context, _ uuid.UUID, id string) error {
	if err := s.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return notFound(err, "deleting transaction")
	}

	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, _ uuid.UUID, ids []string) (int, error) {
	var out wire.DeleteBatchResult

	err := s.do(ctx, http.MethodPost, "/transactions/delete-batch", nil, wire.DeleteBatch{IDs: ids}, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return 0, nil
		}

		return 0, fmt.Errorf("deleting transactions: %w", err)
	}

	return out.Deleted, nil
}

// Me resolves the user the bearer token belongs to.
func (s *Store) Me(ctx context.Context) (uuid.UUID, error) {
	var out struct {
		ID uuid.UUID `json:"id"`
	}

	if err := s.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return uuid.Nil, fmt.Errorf("resolving current user: %w", err)
	}

	return out.ID, nil
}

func notFound(err error, op string) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return transaction.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete
}

// do sends one request, retrying idempotent methods on transport errors and 5xx responses.
func (s *Store) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte

	if in != nil {
		var err error

		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	attempts := 1
	if idempotent(method) {
		attempts += s.retries
	}

	var lastErr error

	for attempt := range attempts {
		if attempt > 0 {
			wait := s.backoff << (attempt - 1)
			slog.Debug("retrying api request", "method", method, "path", path, "attempt", attempt, "error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		retry, err := s.once(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}

		lastErr = err

		if !retry {
			break
		}
	}

	return lastErr
}

func (s *Store) once(ctx context.Context, method, path string, query url.Values, body []byte, out any) (bool, error) {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode >= 500, &StatusError{Code: resp.StatusCode, Message: readError(resp.Body)}
	}

	if out == nil {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	return false, nil
}

func readError(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))

	var e wire.Error
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}

	return strings.TrimSpace(string(raw))
}
