package logx

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// redactedQueryParams are never written to logs. WebSocket clients pass their identity token in the query.
var redactedQueryParams = []string{"token"}

// anonymizeIP zeros the host part of an address: the last octet for IPv4, the
// latter half for IPv6.
func anonymizeIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	switch {
	case ip == nil:
		return "unknown_ip"
	case ip.IsLoopback():
		return "127.0.0.1"
	case ip.To4() != nil:
		return ip.To4().Mask(net.CIDRMask(24, 32)).String()
	default:
		return ip.Mask(net.CIDRMask(64, 128)).String()
	}
}

// redactURI returns the request URI with sensitive query values replaced.
func redactURI(u *url.URL) string {
	query := u.Query()
	changed := false
	for _, key := range redactedQueryParams {
		if query.Has(key) {
			query.Set(key, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.RequestURI()
	}

	redacted := *u
	redacted.RawQuery = query.Encode()
	return redacted.RequestURI()
}

// RequestLogger returns an HTTP middleware that stores a request-scoped logger in the
// context (see Ctx) and logs the outcome once the handler returns. WebSocket upgrades
// are logged when the connection ends.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := Logger().With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_uri", redactURI(r.URL)).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			started := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			event := logger.Info()
			switch {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			}

			event.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Bool("websocket", r.Header.Get("Upgrade") == "websocket").
				Dur("latency", time.Since(started)).
				Msg("Request completed")
		})
	}
}
