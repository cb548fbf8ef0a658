package domain

import "time"

type NotificationToken struct {
	ID        string    `json:"-"`
	UserID    string    `json:"-"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event names pushed over the delivery channel. The channel is best-effort;
// the stores stay authoritative for anything a client misses.
const (
	EventNewMessage       = "message.new"
	EventMessagesRead     = "message.read"
	EventFriendRequest    = "friend.request"
	EventFriendAccepted   = "friend.accepted"
	EventPostLikesChanged = "post.likes"
)
