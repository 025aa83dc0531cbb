package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionHeader carries the browsing session id. The server mints one when the
// client sends none and echoes it back so the client can persist it.
const SessionHeader = "X-Session-ID"

// resolveSession returns the session id for the request, minting a fresh one
// when the header is absent, and stamps it on the response either way.
func resolveSession(w http.ResponseWriter, r *http.Request) string {
	sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)
	return sessionID
}
