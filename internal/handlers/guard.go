package handlers

import (
	"net/http"

	"github.com/rajsahu24/invitation-frontend/internal/session"
)

// RequireSession redirects host-dashboard page loads to the login view when
// no session cookie is present. The cookie's presence is taken as "believed
// authenticated"; a stale token is only discovered by the first proxied call.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.Token(r); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
