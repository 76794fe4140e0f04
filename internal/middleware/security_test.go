package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders_Basic(t *testing.T) {
	handler := SecurityHeaders(SecurityConfig{})(noopHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got '%s'", got)
	}
	if got := rr.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Expected a CSP header")
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Error("Expected no HSTS without secure cookies")
	}
}

func TestSecurityHeaders_HSTSWithSecureCookies(t *testing.T) {
	handler := SecurityHeaders(SecurityConfig{CookieSecure: true})(noopHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("Expected HSTS with secure cookies")
	}
}

func TestSecurityHeaders_TemplateOriginFramable(t *testing.T) {
	handler := SecurityHeaders(SecurityConfig{
		TemplateOrigin: "https://templates.invitely.app",
	})(noopHandler())

	req := httptest.NewRequest("GET", "/host/inv-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "frame-src 'self' https://templates.invitely.app") {
		t.Errorf("Expected template origin in frame-src, got '%s'", csp)
	}
}
