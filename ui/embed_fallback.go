//go:build !ui_embed

// Package ui serves the host frontend when it is embedded at build time.
package ui

import "net/http"

// Handler redirects to the API docs when the frontend is not embedded.
func Handler() (http.Handler, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	}), nil
}
