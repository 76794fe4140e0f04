package middleware

import (
	"net/http"
	"strings"
)

type SecurityConfig struct {
	CookieSecure bool

	// TemplateOrigin is the origin of the template-rendering service whose
	// documents the host dashboard embeds for live preview. It is added to
	// frame-src so the preview iframe is not blocked by CSP.
	TemplateOrigin string
}

func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	frameSrc := "'self'"
	connectSrc := "'self'"
	if cfg.TemplateOrigin != "" {
		frameSrc += " " + cfg.TemplateOrigin
		connectSrc += " " + cfg.TemplateOrigin
	}

	csp := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"img-src 'self' data: https:",
		"font-src 'self'",
		"connect-src " + connectSrc,
		"frame-src " + frameSrc,
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			w.Header().Set("Content-Security-Policy", csp)

			if cfg.CookieSecure {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
