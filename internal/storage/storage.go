// Package storage opens the transaction backend selected by STORAGE_MODE and builds the
// intake services on top of it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/config"
	"github.com/jizhang-jingling/jizhang/internal/database"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	matchingStore "github.com/jizhang-jingling/jizhang/internal/matching/store"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/transaction/apistore"
	"github.com/jizhang-jingling/jizhang/internal/transaction/sqlitestore"
	txStore "github.com/jizhang-jingling/jizhang/internal/transaction/store"
)

var ErrMissingToken = errors.New("JIZHANG_TOKEN is required when STORAGE_MODE=api")

// Backend is an opened store together with the user the client acts as.
type Backend struct {
	Mode         string
	Transactions transaction.Repository
	// Matcher is nil for backends without learned category mappings.
	Matcher *matching.Service
	UserID  uuid.UUID

	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}

	return b.close()
}

// Open connects to the backend named by cfg.Storage.Mode. In api mode the acting user is the
// owner of the configured token; otherwise it comes from JIZHANG_USER_ID.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Mode {
	case config.StoragePostgres:
		return openPostgres(cfg)
	case config.StorageSQLite:
		return openSQLite(ctx, cfg)
	case config.StorageAPI:
		return openAPI(ctx, cfg)
	}

	return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
}

func configuredUser(cfg *config.Config) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(cfg.Client.UserID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing JIZHANG_USER_ID: %w", err)
	}

	return uid, nil
}

func openPostgres(cfg *config.Config) (*Backend, error) {
	uid, err := configuredUser(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	return &Backend{
		Mode:         config.StoragePostgres,
		Transactions: txStore.New(db),
		Matcher:      matching.NewService(matchingStore.New(db)),
		UserID:       uid,
		close:        db.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config) (*Backend, error) {
	uid, err := configuredUser(cfg)
	if err != nil {
		return nil, err
	}

	s, err := sqlitestore.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}

	slog.Debug("using sqlite storage", "path", cfg.Storage.SQLitePath)

	return &Backend{
		Mode:         config.StorageSQLite,
		Transactions: s,
		UserID:       uid,
		close:        s.Close,
	}, nil
}

func openAPI(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg.Client.Token == "" {
		return nil, ErrMissingToken
	}

	s := apistore.New(cfg.Storage.APIBaseURL, cfg.Client.Token,
		apistore.WithHTTPClient(&http.Client{Timeout: cfg.Storage.APITimeout}),
		apistore.WithRetries(cfg.Storage.APIRetries),
	)

	uid, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("using remote storage", "base_url", cfg.Storage.APIBaseURL, "user_id", uid)

	return &Backend{
		Mode:         config.StorageAPI,
		Transactions: s,
		UserID:       uid,
	}, nil
}

// Intake builds the intake service with the configured duplicate window and threshold.
func (b *Backend) Intake(cfg *config.Config, opts ...intake.Option) *intake.Service {
	base := []intake.Option{
		intake.WithLookback(time.Duration(cfg.Intake.LookbackHours) * time.Hour),
		intake.WithThreshold(cfg.Intake.SimilarityThreshold),
	}

	if b.Matcher != nil {
		base = append(base, intake.WithMatcher(b.Matcher))
	}

	return intake.NewService(b.Transactions, append(base, opts...)...)
}
