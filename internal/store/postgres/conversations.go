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

type ConversationsStore struct {
	pool *pgxpool.Pool
}

func NewConversationsStore(pool *pgxpool.Pool) *ConversationsStore {
	return &ConversationsStore{pool: pool}
}

// GetOrCreate resolves the conversation for an unordered user pair,
// creating it on first contact. The insert races on conversations_pair_uq
// (ON CONFLICT DO NOTHING), so two users opening the chat simultaneously
// converge on one row; the follow-up select picks up whichever insert won.
func (s *ConversationsStore) GetOrCreate(ctx context.Context, userA, userB string) (domain.Conversation, error) {
	const ins = `
		INSERT INTO conversations (user_low_id, user_high_id)
		VALUES (least($1::uuid, $2::uuid), greatest($1::uuid, $2::uuid))
		ON CONFLICT ON CONSTRAINT conversations_pair_uq DO NOTHING
		RETURNING id, user_low_id, user_high_id, created_at, last_message_at
	`

	c, err := s.scanConversation(s.pool.QueryRow(ctx, ins, userA, userB))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}

	const sel = `
		SELECT id, user_low_id, user_high_id, created_at, last_message_at
		FROM conversations
		WHERE user_low_id = least($1::uuid, $2::uuid)
			AND user_high_id = greatest($1::uuid, $2::uuid)
	`
	c, err = s.scanConversation(s.pool.QueryRow(ctx, sel, userA, userB))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationsStore) GetByID(ctx context.Context, conversationID string) (domain.Conversation, error) {
	const q = `
		SELECT id, user_low_id, user_high_id, created_at, last_message_at
		FROM conversations
		WHERE id = $1
	`
	c, err := s.scanConversation(s.pool.QueryRow(ctx, q, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, domain.ErrNotFound
		}
		return domain.Conversation{}, fmt.Errorf("get conversation by id: %w", err)
	}
	return c, nil
}

func (s *ConversationsStore) scanConversation(row pgx.Row) (domain.Conversation, error) {
	var (
		c        domain.Conversation
		idUUID   pgtype.UUID
		lowUUID  pgtype.UUID
		highUUID pgtype.UUID
	)
	if err := row.Scan(&idUUID, &lowUUID, &highUUID, &c.CreatedAt, &c.LastMessageAt); err != nil {
		return domain.Conversation{}, err
	}
	c.ID = uuidOrEmpty(idUUID)
	c.UserLowID = uuidOrEmpty(lowUUID)
	c.UserHighID = uuidOrEmpty(highUUID)
	return c, nil
}
