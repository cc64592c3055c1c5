// Package exporters exposes supervisor metrics over HTTP.
package exporters

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns the Prometheus scrape handler for all
// promauto-registered supervisor metrics.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
