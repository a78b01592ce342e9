// Package matching remembers the categories users assign to recurring descriptions, so the next
// "瑞幸" lands in the same category without relying on the keyword classifier.
package matching

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

var ErrInvalidMapping = errors.New("pattern, category and a valid type are required")

// Mapping assigns Category to any description of Kind containing Pattern (case-insensitive).
type Mapping struct {
	UserID   uuid.UUID
	Kind     transaction.Kind
	Pattern  string
	Category string
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the category of the longest matching pattern, or "" when none match.
	FindMatch(ctx context.Context, userID uuid.UUID, kind transaction.Kind, description string) (string, error)
	CreateMapping(ctx context.Context, m Mapping) error
}

// Best returns the category of the longest pattern found in description as a literal,
// case-insensitive substring. Ties go to the earliest mapping. "" when none match.
func Best(mappings []Mapping, description string) string {
	text := strings.ToLower(description)

	best, bestLen := "", 0

	for _, m := range mappings {
		pattern := strings.ToLower(m.Pattern)
		if pattern == "" || !strings.Contains(text, pattern) {
			continue
		}

		if n := utf8.RuneCountInString(pattern); n > bestLen {
			best, bestLen = m.Category, n
		}
	}

	return best
}

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 30 * time.Minute
)

type Service struct {
	repo  Repository
	cache *cache.Cache
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

func cacheKey(userID uuid.UUID, kind transaction.Kind, description string) string {
	return userID.String() + "|" + string(kind) + "|" + description
}

// Match returns the learned category for description, or "" when nothing was learned. Misses
// are cached too.
func (s *Service) Match(ctx context.Context, userID uuid.UUID, kind transaction.Kind, description string) (string, error) {
	key := cacheKey(userID, kind, description)

	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}

	category, err := s.repo.FindMatch(ctx, userID, kind, description)
	if err != nil {
		return "", err
	}

	s.cache.SetDefault(key, category)

	return category, nil
}

// Learn stores a new mapping and drops the user's cached lookups.
func (s *Service) Learn(ctx context.Context, m Mapping) error {
	m.Pattern = strings.TrimSpace(m.Pattern)
	m.Category = strings.TrimSpace(m.Category)

	if m.Pattern == "" || m.Category == "" || !m.Kind.Valid() {
		return ErrInvalidMapping
	}

	if err := s.repo.CreateMapping(ctx, m); err != nil {
		return err
	}

	prefix := m.UserID.String() + "|"
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}

	return nil
}
