package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sidecarhost/internal/logging"
)

// quietPaths are polled or held open by the frontend; successful requests
// to them are logged at debug.
var quietPaths = []string{
	"/api/backend/port",
	"/api/backend/status",
	"/api/events",
	"/api/logs/stream",
}

func isQuiet(path string) bool {
	for _, p := range quietPaths {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/api/health")
}

// redactQuery hides the ?auth= credentials accepted from SSE clients.
func redactQuery(values url.Values) string {
	if values.Has("auth") {
		values.Set("auth", "REDACTED")
	}
	return values.Encode()
}

// requestLevel picks the log level for a finished request.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case method == http.MethodOptions, isQuiet(path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs every API request once it completes.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	method := ctx.Method()
	u := ctx.URL()
	path := u.Path
	status := ctx.Status()

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query := redactQuery(u.Query()); query != "" {
		attrs = append(attrs, slog.String("query", query))
	}
	if op := ctx.Operation(); op != nil && op.OperationID != "" {
		attrs = append(attrs, slog.String("operation", op.OperationID))
	}

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLevel(method, path, status), "HTTP request completed", attrs...)
}
