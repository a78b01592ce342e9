package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, userID uuid.UUID, kind transaction.Kind, description string) (string, error) {
	query := `
		SELECT raw_pattern, category
		FROM category_mappings
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return "", fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var mappings []matching.Mapping

	for rows.Next() {
		m := matching.Mapping{UserID: userID, Kind: kind}
		if err := rows.Scan(&m.Pattern, &m.Category); err != nil {
			return "", fmt.Errorf("scanning mapping: %w", err)
		}

		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating mappings: %w", err)
	}

	return matching.Best(mappings, description), nil
}

func (s *Store) CreateMapping(ctx context.Context, m matching.Mapping) error {
	query := `
		INSERT INTO category_mappings (user_id, kind, raw_pattern, category, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, m.UserID, m.Kind, m.Pattern, m.Category)
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}
