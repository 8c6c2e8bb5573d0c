// Package api implements the marquee HTTP surfaces using chi.
package api

import (
	"net"
	"net/http"
)

// LocalOnly rejects requests that do not come from a loopback address. It
// must run before any middleware that rewrites RemoteAddr from headers.
func LocalOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoopback(r.RemoteAddr) {
			writeJSON(w, http.StatusForbidden, errorBody("operator API is only reachable from this machine"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
