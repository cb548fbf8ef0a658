package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"connectify/internal/domain"
)

type ConversationsStore interface {
	GetOrCreate(ctx context.Context, userA, userB string) (domain.Conversation, error)
	GetByID(ctx context.Context, conversationID string) (domain.Conversation, error)
}

type MessagesStore interface {
	Append(ctx context.Context, conversationID, senderID, recipientID, content string) (domain.Message, error)
	List(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string, when time.Time) (int, error)
	ListSummaries(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
}

// ChatEventNotifier pushes message events to the participants' live
// connections. Best-effort; the stores remain the source of truth.
type ChatEventNotifier interface {
	MessageSent(ctx context.Context, msg domain.Message, sender domain.UserSummary)
	MessagesRead(ctx context.Context, conversationID, readerID, senderID string)
}

const DefaultMessageMaxLen = 2000

type ChatService struct {
	Users         UsersStore
	Conversations ConversationsStore
	Messages      MessagesStore
	Notifier      ChatEventNotifier
	MessageMaxLen int
	Now           func() time.Time
}

// OpenConversation resolves (or lazily creates) the conversation between
// the acting user and another user.
func (s *ChatService) OpenConversation(ctx context.Context, userID, otherUserID string) (domain.Conversation, error) {
	if otherUserID == "" {
		return domain.Conversation{}, domain.NewValidationError(map[string]string{"user_id": "required"})
	}
	if userID == otherUserID {
		return domain.Conversation{}, domain.NewValidationError(map[string]string{"user_id": "cannot chat with yourself"})
	}
	if _, err := s.Users.GetUserByID(ctx, otherUserID); err != nil {
		return domain.Conversation{}, err
	}
	return s.Conversations.GetOrCreate(ctx, userID, otherUserID)
}

// SendMessage validates content, resolves the conversation and appends the
// message. The recipient is notified over the delivery channel and the
// sender gets the same event as a UI echo.
func (s *ChatService) SendMessage(ctx context.Context, senderID, recipientID, content string) (domain.Message, error) {
	if recipientID == "" {
		return domain.Message{}, domain.NewValidationError(map[string]string{"recipient_id": "required"})
	}
	if senderID == recipientID {
		return domain.Message{}, domain.NewValidationError(map[string]string{"recipient_id": "cannot message yourself"})
	}
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, domain.NewValidationError(map[string]string{"content": "required"})
	}
	if utf8.RuneCountInString(content) > s.maxLen() {
		return domain.Message{}, domain.NewValidationError(map[string]string{"content": "too long"})
	}
	if _, err := s.Users.GetUserByID(ctx, recipientID); err != nil {
		return domain.Message{}, err
	}

	conv, err := s.Conversations.GetOrCreate(ctx, senderID, recipientID)
	if err != nil {
		return domain.Message{}, err
	}

	msg, err := s.Messages.Append(ctx, conv.ID, senderID, recipientID, content)
	if err != nil {
		return domain.Message{}, err
	}

	if s.Notifier != nil {
		sender, serr := s.Users.GetUserByID(ctx, senderID)
		if serr == nil {
			s.Notifier.MessageSent(ctx, msg, summaryOf(sender))
		}
	}
	return msg, nil
}

// ListMessages returns the conversation oldest first. Only participants may
// read it.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, requestingUserID string, limit int) ([]domain.Message, error) {
	conv, err := s.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requestingUserID) {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	return s.Messages.List(ctx, conversationID, limit)
}

// MarkRead stamps every unread message addressed to readerID in the
// conversation. Idempotent: once everything is read, further calls change
// nothing and emit no event.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID string) error {
	conv, err := s.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(readerID) {
		return domain.ErrForbidden
	}

	n, err := s.Messages.MarkRead(ctx, conversationID, readerID, s.now())
	if err != nil {
		return err
	}
	if n > 0 && s.Notifier != nil {
		s.Notifier.MessagesRead(ctx, conversationID, readerID, conv.Other(readerID))
	}
	return nil
}

func (s *ChatService) ListSummaries(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	return s.Messages.ListSummaries(ctx, userID)
}

func (s *ChatService) maxLen() int {
	if s.MessageMaxLen > 0 {
		return s.MessageMaxLen
	}
	return DefaultMessageMaxLen
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
