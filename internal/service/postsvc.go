package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"connectify/internal/domain"
)

type PostsStore interface {
	CreatePost(ctx context.Context, authorID, body string) (domain.Post, error)
	GetPost(ctx context.Context, postID string) (domain.Post, error)
	Like(ctx context.Context, postID, userID string) (int, error)
	Unlike(ctx context.Context, postID, userID string) (int, error)
}

// LikeEventNotifier publishes like-count changes. The scope (author-only or
// broadcast) is the notifier's concern, configured at wiring time.
type LikeEventNotifier interface {
	PostLikesChanged(ctx context.Context, postID, authorID string, likeCount int)
}

const postBodyMaxLen = 4000

type PostsService struct {
	Posts    PostsStore
	Notifier LikeEventNotifier
}

func (s *PostsService) CreatePost(ctx context.Context, authorID, body string) (domain.Post, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Post{}, domain.NewValidationError(map[string]string{"body": "required"})
	}
	if utf8.RuneCountInString(body) > postBodyMaxLen {
		return domain.Post{}, domain.NewValidationError(map[string]string{"body": "too long"})
	}
	return s.Posts.CreatePost(ctx, authorID, body)
}

func (s *PostsService) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	return s.Posts.GetPost(ctx, postID)
}

func (s *PostsService) Like(ctx context.Context, userID, postID string) (int, error) {
	return s.setLike(ctx, userID, postID, true)
}

func (s *PostsService) Unlike(ctx context.Context, userID, postID string) (int, error) {
	return s.setLike(ctx, userID, postID, false)
}

func (s *PostsService) setLike(ctx context.Context, userID, postID string, liked bool) (int, error) {
	post, err := s.Posts.GetPost(ctx, postID)
	if err != nil {
		return 0, err
	}

	var count int
	if liked {
		count, err = s.Posts.Like(ctx, postID, userID)
	} else {
		count, err = s.Posts.Unlike(ctx, postID, userID)
	}
	if err != nil {
		return 0, err
	}

	if s.Notifier != nil {
		s.Notifier.PostLikesChanged(ctx, postID, post.AuthorID, count)
	}
	return count, nil
}
