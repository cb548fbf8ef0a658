package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectify/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

// CreateRequest inserts a pending row for the pair. A leftover declined row
// is replaced in the same transaction so a requester can retry; any other
// existing row for the pair trips friendships_pair_uq and surfaces as
// ErrFriendshipExists. Concurrent requests from both sides race on the
// unique index, never on an application-level existence check.
func (s *FriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID string) (string, time.Time, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create friend request: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const clear = `
		DELETE FROM friendships
		WHERE status = 'declined'
			AND least(requester_id, addressee_id) = least($1::uuid, $2::uuid)
			AND greatest(requester_id, addressee_id) = greatest($1::uuid, $2::uuid)
	`
	if _, err := tx.Exec(ctx, clear, requesterID, addresseeID); err != nil {
		return "", time.Time{}, fmt.Errorf("create friend request: clear declined: %w", err)
	}

	const q = `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at
	`

	var (
		idUUID    pgtype.UUID
		createdAt time.Time
	)
	if err := tx.QueryRow(ctx, q, requesterID, addresseeID).Scan(&idUUID, &createdAt); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "friendships_pair_uq" {
			return "", time.Time{}, domain.ErrFriendshipExists
		}
		return "", time.Time{}, fmt.Errorf("create friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", time.Time{}, fmt.Errorf("create friend request: commit: %w", err)
	}

	return uuidOrEmpty(idUUID), createdAt, nil
}

func (s *FriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	const q = `
		UPDATE friendships
		SET status = 'accepted', responded_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, addresseeID, when)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	const q = `
		UPDATE friendships
		SET status = 'declined', responded_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, addresseeID, when)
	if err != nil {
		return fmt.Errorf("decline friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) Cancel(ctx context.Context, requestID, requesterID string) error {
	const q = `
		DELETE FROM friendships
		WHERE id = $1 AND requester_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, requesterID)
	if err != nil {
		return fmt.Errorf("cancel friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) Unfriend(ctx context.Context, userA, userB string) error {
	const q = `
		DELETE FROM friendships
		WHERE status = 'accepted'
			AND least(requester_id, addressee_id) = least($1::uuid, $2::uuid)
			AND greatest(requester_id, addressee_id) = greatest($1::uuid, $2::uuid)
	`
	ct, err := s.pool.Exec(ctx, q, userA, userB)
	if err != nil {
		return fmt.Errorf("unfriend: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) GetByID(ctx context.Context, id string) (domain.Friendship, error) {
	const q = `
		SELECT id, requester_id, addressee_id, status, created_at, responded_at
		FROM friendships
		WHERE id = $1
	`

	var (
		f           domain.Friendship
		idUUID      pgtype.UUID
		reqUUID     pgtype.UUID
		addrUUID    pgtype.UUID
		respondedTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&idUUID,
		&reqUUID,
		&addrUUID,
		&f.Status,
		&f.CreatedAt,
		&respondedTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("get friendship: %w", err)
	}

	f.ID = uuidOrEmpty(idUUID)
	f.RequesterID = uuidOrEmpty(reqUUID)
	f.AddresseeID = uuidOrEmpty(addrUUID)
	f.RespondedAt = timestamptzPtr(respondedTS)
	return f, nil
}

// GetForPair returns the single row for the unordered pair, whichever
// direction it was created in.
func (s *FriendshipsStore) GetForPair(ctx context.Context, userA, userB string) (domain.Friendship, error) {
	const q = `
		SELECT id, requester_id, addressee_id, status, created_at, responded_at
		FROM friendships
		WHERE least(requester_id, addressee_id) = least($1::uuid, $2::uuid)
			AND greatest(requester_id, addressee_id) = greatest($1::uuid, $2::uuid)
	`

	var (
		f           domain.Friendship
		idUUID      pgtype.UUID
		reqUUID     pgtype.UUID
		addrUUID    pgtype.UUID
		respondedTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, userA, userB).Scan(
		&idUUID,
		&reqUUID,
		&addrUUID,
		&f.Status,
		&f.CreatedAt,
		&respondedTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("get friendship for pair: %w", err)
	}

	f.ID = uuidOrEmpty(idUUID)
	f.RequesterID = uuidOrEmpty(reqUUID)
	f.AddresseeID = uuidOrEmpty(addrUUID)
	f.RespondedAt = timestamptzPtr(respondedTS)
	return f, nil
}

func (s *FriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE status = 'accepted'
				AND least(requester_id, addressee_id) = least($1::uuid, $2::uuid)
				AND greatest(requester_id, addressee_id) = greatest($1::uuid, $2::uuid)
		)
	`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, userA, userB).Scan(&ok); err != nil {
		return false, fmt.Errorf("are friends: %w", err)
	}
	return ok, nil
}

func (s *FriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.ListFriends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.listPending(ctx, userID, true)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.listPending(ctx, userID, false)
	if err != nil {
		return domain.FriendsOverview{}, err
	}

	return domain.FriendsOverview{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (s *FriendshipsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	const q = `
		SELECT u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.addressee_id = $1)
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var (
			idUUID      pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&idUUID, &username, &displayName); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, domain.UserSummary{
			ID:          uuidOrEmpty(idUUID),
			Username:    username,
			DisplayName: textOrEmpty(displayName),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

func (s *FriendshipsStore) listPending(ctx context.Context, userID string, incoming bool) ([]domain.FriendRequest, error) {
	q := `
		SELECT f.id, f.created_at, u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.status = 'pending' AND f.addressee_id = $1
		ORDER BY f.created_at DESC
	`
	if !incoming {
		q = `
			SELECT f.id, f.created_at, u.id, u.username, u.display_name
			FROM friendships f
			JOIN users u ON u.id = f.addressee_id
			WHERE f.status = 'pending' AND f.requester_id = $1
			ORDER BY f.created_at DESC
		`
	}

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var out []domain.FriendRequest
	for rows.Next() {
		var (
			reqIDUUID   pgtype.UUID
			createdAt   time.Time
			otherUUID   pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&reqIDUUID, &createdAt, &otherUUID, &username, &displayName); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		out = append(out, domain.FriendRequest{
			ID: uuidOrEmpty(reqIDUUID),
			User: domain.UserSummary{
				ID:          uuidOrEmpty(otherUUID),
				Username:    username,
				DisplayName: textOrEmpty(displayName),
			},
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return out, nil
}
