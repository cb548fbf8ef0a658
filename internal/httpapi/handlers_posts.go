package httpapi

import (
	"net/http"
	"strings"

	"connectify/internal/domain"
)

type createPostRequest struct {
	Body string `json:"body"`
}

func (a *api) handlePostsCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	post, err := a.postsSvc.CreatePost(r.Context(), u.ID, req.Body)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

func (a *api) handlePostsGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	post, err := a.postsSvc.GetPost(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

type likeResponse struct {
	PostID    string `json:"post_id"`
	LikeCount int    `json:"like_count"`
}

func (a *api) handlePostsLike(w http.ResponseWriter, r *http.Request) {
	a.handlePostsSetLike(w, r, true)
}

func (a *api) handlePostsUnlike(w http.ResponseWriter, r *http.Request) {
	a.handlePostsSetLike(w, r, false)
}

func (a *api) handlePostsSetLike(w http.ResponseWriter, r *http.Request, liked bool) {
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

	var (
		count int
		err   error
	)
	if liked {
		count, err = a.postsSvc.Like(r.Context(), u.ID, id)
	} else {
		count, err = a.postsSvc.Unlike(r.Context(), u.ID, id)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, likeResponse{PostID: id, LikeCount: count})
}
