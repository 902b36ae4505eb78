// Package exporters exposes the device metrics over HTTP.
package exporters

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns the Prometheus handler for all promauto-registered
// device metrics.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
