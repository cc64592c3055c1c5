//go:build ui_embed

// Package ui serves the host frontend: the window contents and the log console.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Build with: go build -tags ui_embed .
// Requires the frontend build output in ui/dist.
//
//go:embed all:dist
var distFS embed.FS

// Handler serves the embedded frontend. Unknown extensionless paths fall
// back to index.html for client-side routing.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean(r.URL.Path)
		if info, statErr := fs.Stat(fsys, strings.TrimPrefix(p, "/")); statErr == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if !strings.Contains(path.Base(p), ".") {
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	}), nil
}
