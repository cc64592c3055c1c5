package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// CORSConfig controls which webview origins may call the API.
type CORSConfig struct {
	// AllowOrigins lists exact origins. An entry without a port matches that
	// scheme and host on any port; "*" matches everything.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig allows the packaged webview and local dev servers.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{
			"tauri://localhost",
			"http://tauri.localhost",
			"https://tauri.localhost",
			"http://localhost",
			"http://127.0.0.1",
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", "Accept", "Last-Event-ID"},
		MaxAge:       10 * time.Minute,
	}
}

type corsHeaders struct {
	config       CORSConfig
	allowMethods string
	allowHeaders string
	maxAge       string
}

func newCORSHeaders(config CORSConfig) *corsHeaders {
	return &corsHeaders{
		config:       config,
		allowMethods: strings.Join(config.AllowMethods, ", "),
		allowHeaders: strings.Join(config.AllowHeaders, ", "),
		maxAge:       strconv.Itoa(int(config.MaxAge / time.Second)),
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or "" if
// origin is not allowed.
func (c *corsHeaders) allowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	portless := stripPort(origin)
	for _, allowed := range c.config.AllowOrigins {
		switch allowed {
		case "*":
			return "*"
		case origin, portless:
			return origin
		}
	}
	return ""
}

func (c *corsHeaders) apply(set func(key, value string), origin string) bool {
	allowed := c.allowedOrigin(origin)
	set("Vary", "Origin")
	if allowed == "" {
		return false
	}
	set("Access-Control-Allow-Origin", allowed)
	set("Access-Control-Allow-Methods", c.allowMethods)
	set("Access-Control-Allow-Headers", c.allowHeaders)
	set("Access-Control-Max-Age", c.maxAge)
	return true
}

func stripPort(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Port() == "" {
		return origin
	}
	return u.Scheme + "://" + u.Hostname()
}

// NewCORSMiddleware sets CORS headers on API responses for allowed origins.
func NewCORSMiddleware(config CORSConfig) func(huma.Context, func(huma.Context)) {
	headers := newCORSHeaders(config)
	return func(ctx huma.Context, next func(huma.Context)) {
		headers.apply(ctx.SetHeader, ctx.Header("Origin"))
		next(ctx)
	}
}

// AddCORSHandler answers preflight requests, which never reach huma routing.
func AddCORSHandler(mux *http.ServeMux, config CORSConfig) {
	headers := newCORSHeaders(config)
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		if !headers.apply(w.Header().Set, r.Header.Get("Origin")) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
