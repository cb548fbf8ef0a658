package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"connectify/internal/domain"
)

func (a *api) handleConversationsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.chatSvc.ListSummaries(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if out == nil {
		out = []domain.ConversationSummary{}
	}
	WriteJSON(w, http.StatusOK, out)
}

type openConversationRequest struct {
	UserID string `json:"user_id"`
}

func (a *api) handleConversationsOpen(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req openConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	conv, err := a.chatSvc.OpenConversation(r.Context(), u.ID, strings.TrimSpace(req.UserID))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, conv)
}

func (a *api) handleMessagesList(w http.ResponseWriter, r *http.Request) {
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

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"limit": "must be a positive integer"}))
			return
		}
		limit = n
	}

	msgs, err := a.chatSvc.ListMessages(r.Context(), id, u.ID, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	WriteJSON(w, http.StatusOK, msgs)
}

func (a *api) handleConversationsMarkRead(w http.ResponseWriter, r *http.Request) {
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

	if err := a.chatSvc.MarkRead(r.Context(), id, u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

func (a *api) handleMessagesSend(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	msg, err := a.chatSvc.SendMessage(r.Context(), u.ID, strings.TrimSpace(req.RecipientID), req.Content)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, msg)
}
