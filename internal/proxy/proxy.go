// Package proxy forwards browser requests to the upstream API gateway,
// translating the HttpOnly session cookie into a bearer token on the way.
// The proxy holds no state between requests; concurrent requests are fully
// independent.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rajsahu24/invitation-frontend/internal/httputil"
	"github.com/rajsahu24/invitation-frontend/internal/logging"
	"github.com/rajsahu24/invitation-frontend/internal/metrics"
	"github.com/rajsahu24/invitation-frontend/internal/session"
)

// allowedMethods are the verbs the proxy will forward.
var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// bodyMethods are the verbs that conventionally carry a request body.
var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Proxy relays requests under /api/ onto the gateway base URL.
type Proxy struct {
	gatewayURL string
	httpClient *http.Client
	log        *logging.Logger
}

func New(gatewayURL string, log *logging.Logger) *Proxy {
	return &Proxy{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Handler returns the http.Handler mounted at /api/.
func (p *Proxy) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowedMethods[r.Method] {
			httputil.WriteMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}

		if p.gatewayURL == "" {
			httputil.WriteMessage(w, http.StatusInternalServerError, "Backend URL not configured")
			return
		}

		targetURL := p.gatewayURL + r.URL.Path
		if r.URL.RawQuery != "" {
			targetURL += "?" + r.URL.RawQuery
		}

		var body io.Reader
		if bodyMethods[r.Method] {
			// An unreadable or empty body is not fatal; the gateway
			// decides whether an empty body is valid.
			if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
				body = bytes.NewReader(data)
			}
		}

		proxyReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, body)
		if err != nil {
			p.log.ErrorContext(r.Context(), "proxy request creation failed",
				"path", r.URL.Path, "error", err)
			metrics.ProxyErrorsTotal.Inc()
			httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		copyHeaders(proxyReq.Header, r.Header)

		// The proxy is the sole authority on identity: a session cookie
		// always wins over any client-supplied Authorization header.
		if token, ok := session.Token(r); ok {
			proxyReq.Header.Set("Authorization", "Bearer "+token)
		}

		start := time.Now()
		resp, err := p.httpClient.Do(proxyReq)
		metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.log.ErrorContext(r.Context(), "proxy request failed",
				"path", r.URL.Path, "error", err)
			metrics.ProxyErrorsTotal.Inc()
			httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		defer resp.Body.Close()

		// A 401 from the gateway passes through untouched; the cookie is
		// not cleared here and the UI decides whether to re-authenticate.
		p.relay(w, r, resp)
		metrics.ProxyRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(resp.StatusCode)).Inc()
	})
}

// relay writes the upstream response back to the client. JSON bodies are
// parsed and re-serialized; everything else is relayed byte for byte with
// the upstream content type.
func (p *Proxy) relay(w http.ResponseWriter, r *http.Request, resp *http.Response) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.log.ErrorContext(r.Context(), "proxy response read failed",
			"path", r.URL.Path, "error", err)
		metrics.ProxyErrorsTotal.Inc()
		httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			p.log.ErrorContext(r.Context(), "proxy response parse failed",
				"path", r.URL.Path, "error", err)
			metrics.ProxyErrorsTotal.Inc()
			httputil.WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		httputil.WriteJSON(w, resp.StatusCode, payload)
		return
	}

	httputil.WriteRaw(w, resp.StatusCode, contentType, data)
}

// copyHeaders clones inbound headers minus the connection-hop-specific ones
// that are invalid when forwarded.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if strings.EqualFold(key, "Host") || strings.EqualFold(key, "Connection") {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
