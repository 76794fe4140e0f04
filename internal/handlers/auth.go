package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rajsahu24/invitation-frontend/internal/gateway"
	"github.com/rajsahu24/invitation-frontend/internal/httputil"
	"github.com/rajsahu24/invitation-frontend/internal/logging"
	"github.com/rajsahu24/invitation-frontend/internal/metrics"
	"github.com/rajsahu24/invitation-frontend/internal/session"
)

// AuthHandler implements the session-establishment endpoints. All real
// authentication is delegated to the gateway; these handlers only translate
// gateway-issued tokens into the HttpOnly session cookie and back.
type AuthHandler struct {
	gateway *gateway.Client
	cookies *session.Manager
	log     *logging.Logger
}

func NewAuthHandler(gw *gateway.Client, cookies *session.Manager, log *logging.Logger) *AuthHandler {
	return &AuthHandler{
		gateway: gw,
		cookies: cookies,
		log:     log,
	}
}

// SessionRequest is the body of POST /api/auth/session: a token obtained
// out-of-band, typically from the external-identity redirect parameter.
type SessionRequest struct {
	Token string `json:"token"`
}

// Login forwards the credential payload to the gateway and, on success,
// stores the issued token in the session cookie. The gateway's body and
// status are relayed verbatim either way; the cookie is never set on failure.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.ErrorContext(r.Context(), "login body read failed", "error", err)
		httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	resp, err := h.gateway.Login(r.Context(), body)
	if err != nil {
		h.writeGatewayError(w, r, "login", err)
		return
	}

	if resp.OK() {
		if token := resp.Token(); token != "" {
			h.cookies.Set(w, token)
			metrics.SessionsEstablishedTotal.WithLabelValues("login").Inc()
		}
	}

	relay(w, resp)
}

// Google redirects the browser to the gateway's external-identity entry
// point. No session is established here; the identity flow completes
// asynchronously and delivers a token via the callback page, which posts it
// to the session endpoint.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Configured() {
		httputil.WriteMessage(w, http.StatusInternalServerError, "Backend URL not configured")
		return
	}
	http.Redirect(w, r, h.gateway.IdentityRedirectURL(), http.StatusFound)
}

// Session stores a client-supplied token in the session cookie. The token is
// deliberately not validated against the gateway here: validation is
// deferred to the next proxied call, which surfaces a 401 if the token is
// bad. The BFF trusts that the token came from the legitimate
// external-identity flow.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.ErrorContext(r.Context(), "session body decode failed", "error", err)
		httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if req.Token == "" {
		httputil.WriteMessage(w, http.StatusBadRequest, "Token is required")
		return
	}

	h.cookies.Set(w, req.Token)
	metrics.SessionsEstablishedTotal.WithLabelValues("external").Inc()
	httputil.WriteMessage(w, http.StatusOK, "Session established")
}

// Me proxies the current-user lookup. Without a session cookie it
// short-circuits with 401 and never calls the gateway.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := session.Token(r)
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "No token found")
		return
	}

	resp, err := h.gateway.Me(r.Context(), token)
	if err != nil {
		h.writeGatewayError(w, r, "me", err)
		return
	}

	relay(w, resp)
}

// Logout clears the session cookie. Gateway tokens are stateless, so no
// upstream call is made; the cookie's absence is what ends the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	httputil.WriteMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) writeGatewayError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, gateway.ErrNotConfigured) {
		httputil.WriteMessage(w, http.StatusInternalServerError, "Backend URL not configured")
		return
	}
	h.log.ErrorContext(r.Context(), "gateway call failed", "op", op, "error", err)
	httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
}

// relay writes an upstream auth response back verbatim. Auth endpoints are
// JSON per the gateway contract, so a missing content type defaults to JSON.
func relay(w http.ResponseWriter, resp *gateway.Response) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	httputil.WriteRaw(w, resp.Status, contentType, resp.Body)
}
