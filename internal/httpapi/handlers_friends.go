package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"connectify/internal/domain"
)

func (a *api) handleFriendsOverview(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.ListOverview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleFriendsConnections(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	friends, err := a.friendsSvc.ListFriends(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if friends == nil {
		friends = []domain.UserSummary{}
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	etag := friendsConnectionsETag(u.ID, friends)
	w.Header().Set("ETag", etag)
	if match := strings.TrimSpace(r.Header.Get("If-None-Match")); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	WriteJSON(w, http.StatusOK, friends)
}

type createFriendRequestRequest struct {
	Username string `json:"username"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fr, err := a.friendsSvc.CreateRequest(r.Context(), u.ID, req.Username)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, fr)
}

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	a.handleFriendRequestAction(w, r, a.friendsSvc.Accept)
}

func (a *api) handleFriendsDecline(w http.ResponseWriter, r *http.Request) {
	a.handleFriendRequestAction(w, r, a.friendsSvc.Decline)
}

func (a *api) handleFriendsCancel(w http.ResponseWriter, r *http.Request) {
	a.handleFriendRequestAction(w, r, a.friendsSvc.Cancel)
}

func (a *api) handleFriendRequestAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, requestID string) error) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := action(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsUnfriend(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	otherID := strings.TrimSpace(r.PathValue("userID"))
	if otherID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	if err := a.friendsSvc.Unfriend(r.Context(), u.ID, otherID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type friendStatusResponse struct {
	UserID string               `json:"user_id"`
	Status domain.RelationState `json:"status"`
}

func (a *api) handleFriendsStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	otherID := strings.TrimSpace(r.PathValue("userID"))
	if otherID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	state, err := a.friendsSvc.Status(r.Context(), u.ID, otherID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, friendStatusResponse{UserID: otherID, Status: state})
}

func friendsConnectionsETag(userID string, friends []domain.UserSummary) string {
	h := sha256.New()
	fmt.Fprintf(h, "friends:%s", userID)
	for _, f := range friends {
		fmt.Fprintf(h, ":%s", f.ID)
	}
	return "W/\"" + hex.EncodeToString(h.Sum(nil)[:16]) + "\""
}
