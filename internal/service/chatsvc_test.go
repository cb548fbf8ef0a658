package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"connectify/internal/domain"
)

type stubConversationsStore struct {
	getOrCreateFunc func(context.Context, string, string) (domain.Conversation, error)
	getByIDFunc     func(context.Context, string) (domain.Conversation, error)
}

func (s *stubConversationsStore) GetOrCreate(ctx context.Context, userA, userB string) (domain.Conversation, error) {
	if s.getOrCreateFunc != nil {
		return s.getOrCreateFunc(ctx, userA, userB)
	}
	return domain.Conversation{}, errors.New("get or create not stubbed")
}

func (s *stubConversationsStore) GetByID(ctx context.Context, conversationID string) (domain.Conversation, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, conversationID)
	}
	return domain.Conversation{}, errors.New("get by id not stubbed")
}

type stubMessagesStore struct {
	appendFunc    func(context.Context, string, string, string, string) (domain.Message, error)
	listFunc      func(context.Context, string, int) ([]domain.Message, error)
	markReadFunc  func(context.Context, string, string, time.Time) (int, error)
	summariesFunc func(context.Context, string) ([]domain.ConversationSummary, error)
}

func (s *stubMessagesStore) Append(ctx context.Context, conversationID, senderID, recipientID, content string) (domain.Message, error) {
	if s.appendFunc != nil {
		return s.appendFunc(ctx, conversationID, senderID, recipientID, content)
	}
	return domain.Message{}, errors.New("append not stubbed")
}

func (s *stubMessagesStore) List(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, conversationID, limit)
	}
	return nil, errors.New("list not stubbed")
}

func (s *stubMessagesStore) MarkRead(ctx context.Context, conversationID, readerID string, when time.Time) (int, error) {
	if s.markReadFunc != nil {
		return s.markReadFunc(ctx, conversationID, readerID, when)
	}
	return 0, errors.New("mark read not stubbed")
}

func (s *stubMessagesStore) ListSummaries(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	if s.summariesFunc != nil {
		return s.summariesFunc(ctx, userID)
	}
	return nil, errors.New("summaries not stubbed")
}

type stubChatNotifier struct {
	sentFunc func(ctx context.Context, msg domain.Message, sender domain.UserSummary)
	readFunc func(ctx context.Context, conversationID, readerID, senderID string)
}

func (s *stubChatNotifier) MessageSent(ctx context.Context, msg domain.Message, sender domain.UserSummary) {
	if s.sentFunc != nil {
		s.sentFunc(ctx, msg, sender)
	}
}

func (s *stubChatNotifier) MessagesRead(ctx context.Context, conversationID, readerID, senderID string) {
	if s.readFunc != nil {
		s.readFunc(ctx, conversationID, readerID, senderID)
	}
}

func TestChatOpenConversationValidation(t *testing.T) {
	svc := &ChatService{
		Users:         &stubUsersStore{},
		Conversations: &stubConversationsStore{},
	}

	if _, err := svc.OpenConversation(context.Background(), "user-1", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty other user: got %v", err)
	}
	if _, err := svc.OpenConversation(context.Background(), "user-1", "user-1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self conversation: got %v", err)
	}
}

func TestChatOpenConversationUnknownUser(t *testing.T) {
	svc := &ChatService{
		Users: &stubUsersStore{
			getByIDFunc: func(context.Context, string) (domain.User, error) {
				return domain.User{}, domain.ErrNotFound
			},
		},
		Conversations: &stubConversationsStore{},
	}

	if _, err := svc.OpenConversation(context.Background(), "user-1", "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChatSendMessageValidation(t *testing.T) {
	svc := &ChatService{
		Users:         &stubUsersStore{},
		Conversations: &stubConversationsStore{},
		Messages:      &stubMessagesStore{},
	}

	cases := []struct {
		name      string
		recipient string
		content   string
	}{
		{"empty recipient", "", "hello"},
		{"self send", "user-1", "hello"},
		{"empty content", "user-2", "   "},
		{"too long", "user-2", strings.Repeat("x", DefaultMessageMaxLen+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(context.Background(), "user-1", tc.recipient, tc.content)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestChatSendMessageAppendsAndNotifies(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var notified *domain.Message
	svc := &ChatService{
		Users: &stubUsersStore{
			getByIDFunc: func(_ context.Context, id string) (domain.User, error) {
				return domain.User{ID: id, Username: "u-" + id, Status: domain.UserStatusActive}, nil
			},
		},
		Conversations: &stubConversationsStore{
			getOrCreateFunc: func(_ context.Context, userA, userB string) (domain.Conversation, error) {
				if userA != "user-1" || userB != "user-2" {
					t.Fatalf("unexpected pair: %s %s", userA, userB)
				}
				return domain.Conversation{ID: "conv-1", UserLowID: "user-1", UserHighID: "user-2"}, nil
			},
		},
		Messages: &stubMessagesStore{
			appendFunc: func(_ context.Context, conversationID, senderID, recipientID, content string) (domain.Message, error) {
				if conversationID != "conv-1" || content != "hello" {
					t.Fatalf("unexpected append: %s %q", conversationID, content)
				}
				return domain.Message{
					ID:             1,
					ConversationID: conversationID,
					SenderID:       senderID,
					RecipientID:    recipientID,
					Content:        content,
					SentAt:         sentAt,
				}, nil
			},
		},
		Notifier: &stubChatNotifier{
			sentFunc: func(_ context.Context, msg domain.Message, sender domain.UserSummary) {
				notified = &msg
				if sender.ID != "user-1" {
					t.Fatalf("unexpected sender summary: %+v", sender)
				}
			},
		},
	}

	msg, err := svc.SendMessage(context.Background(), "user-1", "user-2", "hello")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.ID != 1 || !msg.SentAt.Equal(sentAt) {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if notified == nil || notified.ID != 1 {
		t.Fatalf("expected notification with message, got %+v", notified)
	}
}

func TestChatListMessagesForbiddenForOutsider(t *testing.T) {
	svc := &ChatService{
		Conversations: &stubConversationsStore{
			getByIDFunc: func(context.Context, string) (domain.Conversation, error) {
				return domain.Conversation{ID: "conv-1", UserLowID: "user-1", UserHighID: "user-2"}, nil
			},
		},
		Messages: &stubMessagesStore{},
	}

	if _, err := svc.ListMessages(context.Background(), "conv-1", "user-3", 0); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChatListMessagesClampsLimit(t *testing.T) {
	var gotLimit int
	svc := &ChatService{
		Conversations: &stubConversationsStore{
			getByIDFunc: func(context.Context, string) (domain.Conversation, error) {
				return domain.Conversation{ID: "conv-1", UserLowID: "user-1", UserHighID: "user-2"}, nil
			},
		},
		Messages: &stubMessagesStore{
			listFunc: func(_ context.Context, _ string, limit int) ([]domain.Message, error) {
				gotLimit = limit
				return nil, nil
			},
		},
	}

	if _, err := svc.ListMessages(context.Background(), "conv-1", "user-1", 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != 500 {
		t.Fatalf("zero limit: got %d", gotLimit)
	}

	if _, err := svc.ListMessages(context.Background(), "conv-1", "user-1", 9999); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != 500 {
		t.Fatalf("oversized limit: got %d", gotLimit)
	}

	if _, err := svc.ListMessages(context.Background(), "conv-1", "user-1", 50); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != 50 {
		t.Fatalf("explicit limit: got %d", gotLimit)
	}
}

func TestChatMarkReadEmitsEventOnlyWhenRowsChanged(t *testing.T) {
	affected := 2
	var notifiedSender string
	svc := &ChatService{
		Conversations: &stubConversationsStore{
			getByIDFunc: func(context.Context, string) (domain.Conversation, error) {
				return domain.Conversation{ID: "conv-1", UserLowID: "user-1", UserHighID: "user-2"}, nil
			},
		},
		Messages: &stubMessagesStore{
			markReadFunc: func(context.Context, string, string, time.Time) (int, error) {
				return affected, nil
			},
		},
		Notifier: &stubChatNotifier{
			readFunc: func(_ context.Context, conversationID, readerID, senderID string) {
				notifiedSender = senderID
			},
		},
		Now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}

	if err := svc.MarkRead(context.Background(), "conv-1", "user-2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if notifiedSender != "user-1" {
		t.Fatalf("expected read event to the other participant, got %q", notifiedSender)
	}

	notifiedSender = ""
	affected = 0
	if err := svc.MarkRead(context.Background(), "conv-1", "user-2"); err != nil {
		t.Fatalf("mark read repeat: %v", err)
	}
	if notifiedSender != "" {
		t.Fatalf("expected no event when nothing changed")
	}
}

func TestChatMarkReadForbiddenForOutsider(t *testing.T) {
	svc := &ChatService{
		Conversations: &stubConversationsStore{
			getByIDFunc: func(context.Context, string) (domain.Conversation, error) {
				return domain.Conversation{ID: "conv-1", UserLowID: "user-1", UserHighID: "user-2"}, nil
			},
		},
		Messages: &stubMessagesStore{},
	}

	if err := svc.MarkRead(context.Background(), "conv-1", "user-3"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
