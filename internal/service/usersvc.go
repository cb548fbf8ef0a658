package service

import (
	"context"
	"strings"

	"connectify/internal/domain"
)

type UserSearchStore interface {
	SearchUsers(ctx context.Context, selfID, query string, limit int) ([]domain.UserSummary, error)
}

type UsersService struct {
	Store UserSearchStore
}

const searchLimit = 20

func (s *UsersService) Search(ctx context.Context, selfID, query string) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, domain.NewValidationError(map[string]string{"q": "at least 2 characters"})
	}
	return s.Store.SearchUsers(ctx, selfID, query, searchLimit)
}
