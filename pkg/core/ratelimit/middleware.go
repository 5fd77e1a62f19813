package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Middleware rejects requests with 429 once the client's bucket is empty.
// onReject, when non-nil, is called for every rejected request.
func (k *KeyedLimiter) Middleware(next http.Handler, onReject func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		l := k.Get(k.ClientKey(r))
		if !l.Allow() {
			if onReject != nil {
				onReject(r)
			}
			secs := int(math.Ceil(l.RetryAfter().Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded, retry later"})
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, math.Floor(l.Tokens())))))
		next.ServeHTTP(w, r)
	})
}

// ClientKey identifies the caller by remote host. X-Forwarded-For is honoured only
// when the remote host is a trusted proxy; its first hop is then the client.
func (k *KeyedLimiter) ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" && k.isTrusted(host) {
		if client := strings.TrimSpace(strings.Split(fwd, ",")[0]); client != "" {
			return client
		}
	}
	return host
}
