package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// requestGuard rejects requests that did not come from the daemon's own
// pages or a configured origin. The Host check stops DNS rebinding: a
// rebound name still carries the attacker's host name.
type requestGuard struct {
	hosts       map[string]bool
	allowOrigin string
	next        http.Handler
}

// newRequestGuard wraps next. Loopback names, IP literals, the listen host
// and extraHosts are accepted as Host. Origin must match the request host
// or allowOrigin ("*" accepts any origin).
func newRequestGuard(next http.Handler, listenAddr, allowOrigin string, extraHosts []string) *requestGuard {
	hosts := map[string]bool{"localhost": true}
	if host := hostname(listenAddr); host != "" {
		hosts[host] = true
	}
	for _, host := range extraHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			hosts[hostname(host)] = true
		}
	}
	return &requestGuard{hosts: hosts, allowOrigin: allowOrigin, next: next}
}

func (g *requestGuard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.hostAllowed(r.Host) {
		writeGuardError(w, http.StatusMisdirectedRequest, "host not allowed")
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" && !g.originAllowed(origin, r.Host) {
		writeGuardError(w, http.StatusForbidden, "origin not allowed")
		return
	}
	g.next.ServeHTTP(w, r)
}

func (g *requestGuard) hostAllowed(host string) bool {
	name := hostname(host)
	switch {
	case name == "":
		return false
	case net.ParseIP(name) != nil:
		return true
	case strings.HasSuffix(name, ".localhost"):
		return true
	}
	return g.hosts[name]
}

func (g *requestGuard) originAllowed(origin, host string) bool {
	if g.allowOrigin == "*" || (g.allowOrigin != "" && strings.EqualFold(origin, g.allowOrigin)) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// hostname strips the port and IPv6 brackets and lowercases the name.
func hostname(hostport string) string {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return strings.ToLower(host)
}

func writeGuardError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
