package httpapi

import (
	"net/http"
	"strings"

	"connectify/internal/domain"
)

func (a *api) handleUsersSearch(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))

	out, err := a.usersSvc.Search(r.Context(), u.ID, q)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if out == nil {
		out = []domain.UserSummary{}
	}

	WriteJSON(w, http.StatusOK, out)
}
