// Package session owns the HttpOnly cookie that carries the gateway-issued
// bearer token. The token never reaches page-level script and is never
// logged; handlers read it only to translate it into an Authorization header.
package session

import (
	"net/http"
	"time"
)

// CookieName is the session cookie's name on the wire.
const CookieName = "token"

// TTL is the fixed session lifetime from issuance.
const TTL = 7 * 24 * time.Hour

// Manager writes and clears the session cookie with consistent attributes.
// Login, session establishment and logout are the only writers; each fully
// replaces the cookie value.
type Manager struct {
	domain string
	secure bool
}

func NewManager(domain string, secure bool) *Manager {
	return &Manager{domain: domain, secure: secure}
}

// Set issues the session cookie for the given token.
func (m *Manager) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(TTL.Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token returns the session token carried by the request, if any.
func Token(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
