package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"connectify/internal/domain"
)

type FriendshipsStore interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID string) (string, time.Time, error)
	Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error
	Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error
	Cancel(ctx context.Context, requestID, requesterID string) error
	Unfriend(ctx context.Context, userA, userB string) error
	GetByID(ctx context.Context, id string) (domain.Friendship, error)
	GetForPair(ctx context.Context, userA, userB string) (domain.Friendship, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error)
	ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error)
}

// FriendEventNotifier pushes friend-graph events to the affected user.
// Delivery is best-effort; errors are logged by the notifier, not returned.
type FriendEventNotifier interface {
	FriendRequestCreated(ctx context.Context, requestID string, requester domain.UserSummary, addresseeID string)
	FriendRequestAccepted(ctx context.Context, requestID string, accepter domain.UserSummary, requesterID string)
}

type FriendsService struct {
	Users       UsersStore
	Friendships FriendshipsStore
	Notifier    FriendEventNotifier
	Now         func() time.Time
}

func (s *FriendsService) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return s.Friendships.ListOverview(ctx, userID)
}

func (s *FriendsService) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	return s.Friendships.ListFriends(ctx, userID)
}

// CreateRequest starts a pending friendship toward the named user. The
// store owns pair uniqueness; this layer only validates identities.
func (s *FriendsService) CreateRequest(ctx context.Context, requesterID, addresseeUsername string) (domain.FriendRequest, error) {
	addresseeUsername = strings.TrimSpace(addresseeUsername)
	if addresseeUsername == "" {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "required"})
	}

	target, err := s.Users.GetUserByUsername(ctx, addresseeUsername)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FriendRequest{}, domain.ErrNotFound
		}
		return domain.FriendRequest{}, err
	}
	if target.ID == requesterID {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "cannot friend yourself"})
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.FriendRequest{}, domain.ErrForbidden
	}

	id, createdAt, err := s.Friendships.CreateRequest(ctx, requesterID, target.ID)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	if s.Notifier != nil {
		requester, err := s.Users.GetUserByID(ctx, requesterID)
		if err == nil {
			s.Notifier.FriendRequestCreated(ctx, id, summaryOf(requester), target.ID)
		}
	}

	return domain.FriendRequest{
		ID:        id,
		User:      domain.UserSummary{ID: target.ID, Username: target.Username, DisplayName: target.DisplayName},
		CreatedAt: createdAt,
	}, nil
}

func (s *FriendsService) Accept(ctx context.Context, addresseeID, requestID string) error {
	if err := s.Friendships.Accept(ctx, requestID, addresseeID, s.now()); err != nil {
		return err
	}

	if s.Notifier != nil {
		accepter, aerr := s.Users.GetUserByID(ctx, addresseeID)
		f, ferr := s.Friendships.GetByID(ctx, requestID)
		if aerr == nil && ferr == nil {
			s.Notifier.FriendRequestAccepted(ctx, requestID, summaryOf(accepter), f.RequesterID)
		}
	}
	return nil
}

func (s *FriendsService) Decline(ctx context.Context, addresseeID, requestID string) error {
	return s.Friendships.Decline(ctx, requestID, addresseeID, s.now())
}

func (s *FriendsService) Cancel(ctx context.Context, requesterID, requestID string) error {
	return s.Friendships.Cancel(ctx, requestID, requesterID)
}

func (s *FriendsService) Unfriend(ctx context.Context, userID, otherUserID string) error {
	if userID == otherUserID {
		return domain.NewValidationError(map[string]string{"user_id": "cannot unfriend yourself"})
	}
	return s.Friendships.Unfriend(ctx, userID, otherUserID)
}

// Status reports the pairwise relation from userID's perspective.
func (s *FriendsService) Status(ctx context.Context, userID, otherUserID string) (domain.RelationState, error) {
	if userID == otherUserID {
		return domain.RelationSelf, nil
	}

	f, err := s.Friendships.GetForPair(ctx, userID, otherUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RelationNone, nil
		}
		return "", err
	}

	switch f.Status {
	case domain.FriendshipAccepted:
		return domain.RelationFriends, nil
	case domain.FriendshipPending:
		if f.RequesterID == userID {
			return domain.RelationPendingSent, nil
		}
		return domain.RelationPendingReceived, nil
	default:
		// A declined row reads as no relationship; the requester may retry.
		return domain.RelationNone, nil
	}
}

func (s *FriendsService) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return s.Friendships.AreFriends(ctx, userA, userB)
}

func (s *FriendsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func summaryOf(u domain.User) domain.UserSummary {
	return domain.UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}
