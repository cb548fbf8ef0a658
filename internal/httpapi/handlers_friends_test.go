package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectify/internal/domain"
	"connectify/internal/service"
)

type stubFriendshipsStore struct {
	t *testing.T

	createRequestFunc func(context.Context, string, string) (string, time.Time, error)
	acceptFunc        func(context.Context, string, string, time.Time) error
	declineFunc       func(context.Context, string, string, time.Time) error
	cancelFunc        func(context.Context, string, string) error
	unfriendFunc      func(context.Context, string, string) error
	getByIDFunc       func(context.Context, string) (domain.Friendship, error)
	getForPairFunc    func(context.Context, string, string) (domain.Friendship, error)
	areFriendsFunc    func(context.Context, string, string) (bool, error)
	listOverviewFunc  func(context.Context, string) (domain.FriendsOverview, error)
	listFriendsFunc   func(context.Context, string) ([]domain.UserSummary, error)
}

func (s *stubFriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID string) (string, time.Time, error) {
	if s.createRequestFunc != nil {
		return s.createRequestFunc(ctx, requesterID, addresseeID)
	}
	s.t.Fatalf("CreateRequest called unexpectedly")
	return "", time.Time{}, context.Canceled
}

func (s *stubFriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	if s.acceptFunc != nil {
		return s.acceptFunc(ctx, requestID, addresseeID, when)
	}
	s.t.Fatalf("Accept called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	if s.declineFunc != nil {
		return s.declineFunc(ctx, requestID, addresseeID, when)
	}
	s.t.Fatalf("Decline called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) Cancel(ctx context.Context, requestID, requesterID string) error {
	if s.cancelFunc != nil {
		return s.cancelFunc(ctx, requestID, requesterID)
	}
	s.t.Fatalf("Cancel called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) Unfriend(ctx context.Context, userA, userB string) error {
	if s.unfriendFunc != nil {
		return s.unfriendFunc(ctx, userA, userB)
	}
	s.t.Fatalf("Unfriend called unexpectedly")
	return context.Canceled
}

func (s *stubFriendshipsStore) GetByID(ctx context.Context, id string) (domain.Friendship, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetByID called unexpectedly")
	return domain.Friendship{}, context.Canceled
}

func (s *stubFriendshipsStore) GetForPair(ctx context.Context, userA, userB string) (domain.Friendship, error) {
	if s.getForPairFunc != nil {
		return s.getForPairFunc(ctx, userA, userB)
	}
	s.t.Fatalf("GetForPair called unexpectedly")
	return domain.Friendship{}, context.Canceled
}

func (s *stubFriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	if s.areFriendsFunc != nil {
		return s.areFriendsFunc(ctx, userA, userB)
	}
	s.t.Fatalf("AreFriends called unexpectedly")
	return false, context.Canceled
}

func (s *stubFriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	if s.listOverviewFunc != nil {
		return s.listOverviewFunc(ctx, userID)
	}
	s.t.Fatalf("ListOverview called unexpectedly")
	return domain.FriendsOverview{}, context.Canceled
}

func (s *stubFriendshipsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	if s.listFriendsFunc != nil {
		return s.listFriendsFunc(ctx, userID)
	}
	s.t.Fatalf("ListFriends called unexpectedly")
	return nil, context.Canceled
}

type stubUsersStore struct {
	t *testing.T

	getByIDFunc       func(context.Context, string) (domain.User, error)
	getByUsernameFunc func(context.Context, string) (domain.User, error)
}

func (s *stubUsersStore) CreateUser(context.Context, string, string, string, string) (domain.User, error) {
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if s.getByUsernameFunc != nil {
		return s.getByUsernameFunc(ctx, username)
	}
	s.t.Fatalf("GetUserByUsername called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersStore) GetUserByLogin(context.Context, string) (domain.UserWithPassword, error) {
	s.t.Fatalf("GetUserByLogin called unexpectedly")
	return domain.UserWithPassword{}, context.Canceled
}

func (s *stubUsersStore) SetLastLogin(context.Context, string, time.Time) error {
	return nil
}

func authedRequest(method, target string, body string, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), authUserKey, domain.User{ID: userID, Status: domain.UserStatusActive}))
}

func TestFriendsCreateRequestReturnsCreated(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &api{
		friendsSvc: &service.FriendsService{
			Users: &stubUsersStore{
				t: t,
				getByUsernameFunc: func(_ context.Context, username string) (domain.User, error) {
					if username != "bob" {
						t.Fatalf("unexpected username: %s", username)
					}
					return domain.User{ID: "user-2", Username: "bob", Status: domain.UserStatusActive}, nil
				},
			},
			Friendships: &stubFriendshipsStore{
				t: t,
				createRequestFunc: func(_ context.Context, requesterID, addresseeID string) (string, time.Time, error) {
					if requesterID != "user-1" || addresseeID != "user-2" {
						t.Fatalf("unexpected pair: %s %s", requesterID, addresseeID)
					}
					return "req-1", created, nil
				},
			},
		},
	}

	req := authedRequest(http.MethodPost, "/v1/friends/requests", `{"username":"bob"}`, "user-1")
	rr := httptest.NewRecorder()
	api.handleFriendsCreateRequest(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var got domain.FriendRequest
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "req-1" || got.User.Username != "bob" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestFriendsCreateRequestConflict(t *testing.T) {
	api := &api{
		friendsSvc: &service.FriendsService{
			Users: &stubUsersStore{
				t: t,
				getByUsernameFunc: func(context.Context, string) (domain.User, error) {
					return domain.User{ID: "user-2", Username: "bob", Status: domain.UserStatusActive}, nil
				},
			},
			Friendships: &stubFriendshipsStore{
				t: t,
				createRequestFunc: func(context.Context, string, string) (string, time.Time, error) {
					return "", time.Time{}, domain.ErrFriendshipExists
				},
			},
		},
	}

	req := authedRequest(http.MethodPost, "/v1/friends/requests", `{"username":"bob"}`, "user-1")
	rr := httptest.NewRecorder()
	api.handleFriendsCreateRequest(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp errorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "friendship_exists" {
		t.Fatalf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestFriendsAcceptUnknownRequest(t *testing.T) {
	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: &stubFriendshipsStore{
				t: t,
				acceptFunc: func(_ context.Context, requestID, addresseeID string, _ time.Time) error {
					if requestID != "req-9" || addresseeID != "user-1" {
						t.Fatalf("unexpected accept ids: %s %s", requestID, addresseeID)
					}
					return domain.ErrNotFound
				},
			},
		},
	}

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-9/accept", "", "user-1")
	req.SetPathValue("id", "req-9")
	rr := httptest.NewRecorder()
	api.handleFriendsAccept(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsDeclineNoContent(t *testing.T) {
	declined := false
	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: &stubFriendshipsStore{
				t: t,
				declineFunc: func(_ context.Context, requestID, addresseeID string, _ time.Time) error {
					declined = true
					if requestID != "req-1" || addresseeID != "user-1" {
						t.Fatalf("unexpected decline ids: %s %s", requestID, addresseeID)
					}
					return nil
				},
			},
		},
	}

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-1/decline", "", "user-1")
	req.SetPathValue("id", "req-1")
	rr := httptest.NewRecorder()
	api.handleFriendsDecline(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if !declined {
		t.Fatalf("expected decline to be called")
	}
}

func TestFriendsStatusResponse(t *testing.T) {
	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: &stubFriendshipsStore{
				t: t,
				getForPairFunc: func(_ context.Context, userA, userB string) (domain.Friendship, error) {
					return domain.Friendship{
						RequesterID: "user-1",
						AddresseeID: "user-2",
						Status:      domain.FriendshipPending,
					}, nil
				},
			},
		},
	}

	req := authedRequest(http.MethodGet, "/v1/friends/status/user-2", "", "user-1")
	req.SetPathValue("userID", "user-2")
	rr := httptest.NewRecorder()
	api.handleFriendsStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var got friendStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.UserID != "user-2" || got.Status != domain.RelationPendingSent {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestFriendsUnfriendNoContent(t *testing.T) {
	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: &stubFriendshipsStore{
				t: t,
				unfriendFunc: func(_ context.Context, userA, userB string) error {
					if userA != "user-1" || userB != "user-2" {
						t.Fatalf("unexpected pair: %s %s", userA, userB)
					}
					return nil
				},
			},
		},
	}

	req := authedRequest(http.MethodDelete, "/v1/friends/user-2", "", "user-1")
	req.SetPathValue("userID", "user-2")
	rr := httptest.NewRecorder()
	api.handleFriendsUnfriend(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsConnectionsETagNotModified(t *testing.T) {
	friends := []domain.UserSummary{{ID: "user-2", Username: "bob"}}
	api := &api{
		friendsSvc: &service.FriendsService{
			Friendships: &stubFriendshipsStore{
				t: t,
				listFriendsFunc: func(context.Context, string) ([]domain.UserSummary, error) {
					return friends, nil
				},
			},
		},
	}

	req := authedRequest(http.MethodGet, "/v1/friends/connections", "", "user-1")
	rr := httptest.NewRecorder()
	api.handleFriendsConnections(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected etag")
	}
	if got := rr.Header().Get("Cache-Control"); got != "private, max-age=0" {
		t.Fatalf("unexpected cache-control: %s", got)
	}

	req = authedRequest(http.MethodGet, "/v1/friends/connections", "", "user-1")
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	api.handleFriendsConnections(rr, req)

	if rr.Code != http.StatusNotModified {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsOverviewRequiresAuth(t *testing.T) {
	api := &api{friendsSvc: &service.FriendsService{}}

	req := httptest.NewRequest(http.MethodGet, "/v1/friends", nil)
	rr := httptest.NewRecorder()
	api.handleFriendsOverview(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
