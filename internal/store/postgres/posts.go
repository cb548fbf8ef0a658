package postgres

import (
	"context"
	"errors"
	"fmt"

	"connectify/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsStore struct {
	pool *pgxpool.Pool
}

func NewPostsStore(pool *pgxpool.Pool) *PostsStore {
	return &PostsStore{pool: pool}
}

func (s *PostsStore) CreatePost(ctx context.Context, authorID, body string) (domain.Post, error) {
	const q = `
		INSERT INTO posts (author_id, body)
		VALUES ($1, $2)
		RETURNING id, author_id, body, created_at
	`

	var (
		p          domain.Post
		idUUID     pgtype.UUID
		authorUUID pgtype.UUID
	)
	if err := s.pool.QueryRow(ctx, q, authorID, body).Scan(&idUUID, &authorUUID, &p.Body, &p.CreatedAt); err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	p.ID = uuidOrEmpty(idUUID)
	p.AuthorID = uuidOrEmpty(authorUUID)
	return p, nil
}

func (s *PostsStore) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	const q = `SELECT id, author_id, body, created_at FROM posts WHERE id = $1`

	var (
		p          domain.Post
		idUUID     pgtype.UUID
		authorUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, postID).Scan(&idUUID, &authorUUID, &p.Body, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	p.ID = uuidOrEmpty(idUUID)
	p.AuthorID = uuidOrEmpty(authorUUID)
	return p, nil
}

// Like records the like and returns the resulting count. ON CONFLICT DO
// NOTHING makes double-likes no-ops instead of errors.
func (s *PostsStore) Like(ctx context.Context, postID, userID string) (int, error) {
	const ins = `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, ins, postID, userID); err != nil {
		return 0, fmt.Errorf("like post: %w", err)
	}
	return s.LikeCount(ctx, postID)
}

func (s *PostsStore) Unlike(ctx context.Context, postID, userID string) (int, error) {
	const del = `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	if _, err := s.pool.Exec(ctx, del, postID, userID); err != nil {
		return 0, fmt.Errorf("unlike post: %w", err)
	}
	return s.LikeCount(ctx, postID)
}

func (s *PostsStore) LikeCount(ctx context.Context, postID string) (int, error) {
	const q = `SELECT count(*) FROM post_likes WHERE post_id = $1`
	var n int
	if err := s.pool.QueryRow(ctx, q, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("like count: %w", err)
	}
	return n, nil
}
