package httpapi

import (
	"net/http"

	"connectify/internal/domain"
)

// handleWS upgrades the request to a websocket and hands it to the hub.
// Authentication runs before the upgrade, so the hub only ever sees
// connections bound to a verified user.
func (a *api) handleWS(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	a.hub.ServeWS(w, r, u.ID)
}
