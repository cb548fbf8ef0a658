package domain

import "time"

// Conversation holds the canonical 2-party channel. Participants are stored
// low id first so every lookup uses a single ordering.
type Conversation struct {
	ID            string    `json:"id"`
	UserLowID     string    `json:"user_low_id"`
	UserHighID    string    `json:"user_high_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Other returns the participant that is not userID. The caller is expected
// to have verified participation already.
func (c Conversation) Other(userID string) string {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

func (c Conversation) HasParticipant(userID string) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// Message ids are assigned by a database sequence, so (SentAt, ID) is a
// total, insert-monotonic sort key.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Content        string     `json:"content"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ConversationSummary is the read-side projection for inbox views.
type ConversationSummary struct {
	ConversationID string      `json:"conversation_id"`
	Other          UserSummary `json:"user"`
	LastMessage    string      `json:"last_message"`
	LastMessageAt  time.Time   `json:"last_message_at"`
	UnreadCount    int         `json:"unread_count"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
