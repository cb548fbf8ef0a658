package postgres

import (
	"context"
	"fmt"
	"time"

	"connectify/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessagesStore struct {
	pool *pgxpool.Pool
}

func NewMessagesStore(pool *pgxpool.Pool) *MessagesStore {
	return &MessagesStore{pool: pool}
}

// Append inserts the message and bumps the conversation's last_message_at
// in one transaction. GREATEST keeps the bump monotone when concurrent
// senders commit out of sent_at order.
func (s *MessagesStore) Append(ctx context.Context, conversationID, senderID, recipientID, content string) (domain.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const ins = `
		INSERT INTO messages (conversation_id, sender_id, recipient_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sent_at
	`

	m := domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
	}
	if err := tx.QueryRow(ctx, ins, conversationID, senderID, recipientID, content).Scan(&m.ID, &m.SentAt); err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}

	const bump = `
		UPDATE conversations
		SET last_message_at = GREATEST(last_message_at, $2)
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, bump, conversationID, m.SentAt); err != nil {
		return domain.Message{}, fmt.Errorf("append message: bump conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Message{}, fmt.Errorf("append message: commit: %w", err)
	}
	return m, nil
}

// List returns the conversation's messages oldest first. The id tiebreak
// makes the order deterministic for equal timestamps.
func (s *MessagesStore) List(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	const q = `
		SELECT id, conversation_id, sender_id, recipient_id, content, sent_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC, id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, q, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			m        domain.Message
			convUUID pgtype.UUID
			sendUUID pgtype.UUID
			recvUUID pgtype.UUID
			readAtTS pgtype.Timestamptz
		)
		if err := rows.Scan(&m.ID, &convUUID, &sendUUID, &recvUUID, &m.Content, &m.SentAt, &readAtTS); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ConversationID = uuidOrEmpty(convUUID)
		m.SenderID = uuidOrEmpty(sendUUID)
		m.RecipientID = uuidOrEmpty(recvUUID)
		m.ReadAt = timestamptzPtr(readAtTS)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// MarkRead stamps every unread message addressed to readerID. The read_at
// IS NULL filter makes repeated calls no-ops; the returned count is the
// number of messages that flipped on this call. GREATEST clamps the stamp
// to sent_at: sent_at comes from the database clock, and an app clock
// running slightly behind it would otherwise trip messages_read_after_sent
// on a message read the instant it arrives.
func (s *MessagesStore) MarkRead(ctx context.Context, conversationID, readerID string, when time.Time) (int, error) {
	const q = `
		UPDATE messages
		SET read_at = GREATEST($3, sent_at)
		WHERE conversation_id = $1 AND recipient_id = $2 AND read_at IS NULL
	`
	ct, err := s.pool.Exec(ctx, q, conversationID, readerID, when)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// ListSummaries builds the inbox projection: one row per conversation the
// user participates in, newest activity first.
func (s *MessagesStore) ListSummaries(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	const q = `
		SELECT
			c.id,
			u.id,
			u.username,
			u.display_name,
			c.last_message_at,
			COALESCE(last.content, ''),
			COALESCE(unread.n, 0)
		FROM conversations c
		JOIN users u ON u.id = CASE
			WHEN c.user_low_id = $1 THEN c.user_high_id
			ELSE c.user_low_id
		END
		LEFT JOIN LATERAL (
			SELECT m.content
			FROM messages m
			WHERE m.conversation_id = c.id
			ORDER BY m.sent_at DESC, m.id DESC
			LIMIT 1
		) last ON true
		LEFT JOIN LATERAL (
			SELECT count(*) AS n
			FROM messages m
			WHERE m.conversation_id = c.id AND m.recipient_id = $1 AND m.read_at IS NULL
		) unread ON true
		WHERE c.user_low_id = $1 OR c.user_high_id = $1
		ORDER BY c.last_message_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversation summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationSummary
	for rows.Next() {
		var (
			cs          domain.ConversationSummary
			convUUID    pgtype.UUID
			otherUUID   pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&convUUID, &otherUUID, &username, &displayName, &cs.LastMessageAt, &cs.LastMessage, &cs.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan conversation summary: %w", err)
		}
		cs.ConversationID = uuidOrEmpty(convUUID)
		cs.Other = domain.UserSummary{
			ID:          uuidOrEmpty(otherUUID),
			Username:    username,
			DisplayName: textOrEmpty(displayName),
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversation summaries: %w", err)
	}
	return out, nil
}
