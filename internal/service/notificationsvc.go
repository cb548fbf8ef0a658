package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectify/internal/domain"
	"connectify/internal/notifications"
)

type NotificationTokensStore interface {
	UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.NotificationToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
	ListTokens(ctx context.Context, userID string) ([]domain.NotificationToken, error)
}

// Realtime is the live delivery channel (the websocket hub). NotifyUser
// reports how many connections the event reached so callers can decide on
// an offline fallback.
type Realtime interface {
	NotifyUser(userID, event string, payload any) int
	Broadcast(event string, payload any)
}

type PushSender interface {
	Send(ctx context.Context, token string, data map[string]string) error
}

// LikeEventScope controls who receives like-count updates. Broadcast
// pushes the new count to every connected client; author targets only
// the post's author.
type LikeEventScope string

const (
	LikeScopeAuthor    LikeEventScope = "author"
	LikeScopeBroadcast LikeEventScope = "broadcast"
)

// NotificationService is the delivery channel: realtime push to active
// connections, with FCM data messages as a fallback for users who have no
// connection. Everything here is best-effort; failures are logged and
// never propagated into the triggering operation.
type NotificationService struct {
	Realtime  Realtime
	Tokens    NotificationTokensStore
	Sender    PushSender
	LikeScope LikeEventScope
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) (domain.NotificationToken, error) {
	if s.Tokens == nil {
		return domain.NotificationToken{}, errors.New("notifications unavailable")
	}
	token = strings.TrimSpace(token)
	platform = strings.TrimSpace(strings.ToLower(platform))
	if token == "" || platform == "" {
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{"token": "required", "platform": "required"})
	}
	switch platform {
	case "android", "ios":
	default:
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{"platform": "must be ios or android"})
	}
	return s.Tokens.UpsertToken(ctx, userID, token, platform, s.now().UTC().Truncate(time.Millisecond))
}

func (s *NotificationService) DeleteToken(ctx context.Context, userID, token string) error {
	if s.Tokens == nil {
		return errors.New("notifications unavailable")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	return s.Tokens.DeleteToken(ctx, userID, token)
}

type messageEvent struct {
	Message domain.Message     `json:"message"`
	Sender  domain.UserSummary `json:"sender"`
}

// MessageSent pushes the new message to the recipient and echoes it to the
// sender's other connections. Offline recipients get a mobile push; the
// message itself is already durable in the store.
func (s *NotificationService) MessageSent(ctx context.Context, msg domain.Message, sender domain.UserSummary) {
	if s.Realtime == nil {
		return
	}

	ev := messageEvent{Message: msg, Sender: sender}
	s.Realtime.NotifyUser(msg.SenderID, domain.EventNewMessage, ev)
	delivered := s.Realtime.NotifyUser(msg.RecipientID, domain.EventNewMessage, ev)

	if delivered == 0 {
		s.push(ctx, msg.RecipientID, map[string]string{
			"type":            "new_message",
			"conversation_id": msg.ConversationID,
			"sender_id":       sender.ID,
			"sender_username": sender.Username,
		})
	}
}

type readEvent struct {
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
}

// MessagesRead tells the original sender their messages were seen. No push
// fallback: read receipts are worthless by the time the user comes online.
func (s *NotificationService) MessagesRead(ctx context.Context, conversationID, readerID, senderID string) {
	if s.Realtime == nil {
		return
	}
	s.Realtime.NotifyUser(senderID, domain.EventMessagesRead, readEvent{
		ConversationID: conversationID,
		ReaderID:       readerID,
	})
}

type friendRequestEvent struct {
	RequestID string             `json:"request_id"`
	User      domain.UserSummary `json:"user"`
}

func (s *NotificationService) FriendRequestCreated(ctx context.Context, requestID string, requester domain.UserSummary, addresseeID string) {
	delivered := 0
	if s.Realtime != nil {
		delivered = s.Realtime.NotifyUser(addresseeID, domain.EventFriendRequest, friendRequestEvent{
			RequestID: requestID,
			User:      requester,
		})
	}
	if delivered == 0 {
		s.push(ctx, addresseeID, map[string]string{
			"type":       "friend_request",
			"request_id": requestID,
			"username":   requester.Username,
		})
	}
}

func (s *NotificationService) FriendRequestAccepted(ctx context.Context, requestID string, accepter domain.UserSummary, requesterID string) {
	if s.Realtime == nil {
		return
	}
	s.Realtime.NotifyUser(requesterID, domain.EventFriendAccepted, friendRequestEvent{
		RequestID: requestID,
		User:      accepter,
	})
}

type likeEvent struct {
	PostID    string `json:"post_id"`
	LikeCount int    `json:"like_count"`
}

func (s *NotificationService) PostLikesChanged(ctx context.Context, postID, authorID string, likeCount int) {
	if s.Realtime == nil {
		return
	}
	ev := likeEvent{PostID: postID, LikeCount: likeCount}
	if s.LikeScope == LikeScopeBroadcast {
		s.Realtime.Broadcast(domain.EventPostLikesChanged, ev)
		return
	}
	s.Realtime.NotifyUser(authorID, domain.EventPostLikesChanged, ev)
}

// push sends an FCM data message to every registered device of the user,
// pruning tokens FCM reports as dead.
func (s *NotificationService) push(ctx context.Context, userID string, data map[string]string) {
	if s.Tokens == nil || s.Sender == nil {
		return
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := s.Tokens.ListTokens(ctx, userID)
	if err != nil {
		logger.Error("notifications: list tokens failed", "err", err, "user_id", userID)
		return
	}

	for _, t := range tokens {
		if err := s.Sender.Send(ctx, t.Token, data); err != nil {
			if errors.Is(err, notifications.ErrInvalidToken) {
				if delErr := s.Tokens.DeleteToken(ctx, userID, t.Token); delErr != nil {
					logger.Error("notifications: delete invalid token failed", "err", delErr, "user_id", userID)
				}
				continue
			}
			logger.Error("notifications: push failed", "err", err, "user_id", userID)
		}
	}
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
