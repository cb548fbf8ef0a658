package domain

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship is the stored row: a directed request that, once accepted,
// reads as a symmetric relationship. At most one row exists per unordered
// user pair (friendships_pair_uq).
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	AddresseeID string           `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

type FriendRequest struct {
	ID        string      `json:"id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}

// RelationState is the pairwise status from one user's perspective.
type RelationState string

const (
	RelationSelf            RelationState = "self"
	RelationFriends         RelationState = "friends"
	RelationPendingSent     RelationState = "pending_sent"
	RelationPendingReceived RelationState = "pending_received"
	RelationNone            RelationState = "not_friends"
)
