//go:build !ui_embed

// Package ui provides a fallback handler when the frontend is not embedded.
package ui

import (
	"net/http"
)

// Handler returns an http.Handler that sends browsers to the API docs,
// the only page available without the built frontend.
func Handler() (http.Handler, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/docs", http.StatusFound)
	}), nil
}
