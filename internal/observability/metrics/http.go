package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport wraps next so every file service request is counted and timed.
func (m *ClientMetrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		path := normalizePath(req.URL.Path)

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		resp, err := next.RoundTrip(req)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.requestTotal.WithLabelValues(m.service, req.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(m.service, req.Method, path).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/files/"):
		return "/files/{id}"
	case strings.HasPrefix(path, "/uploads/"):
		return "/uploads/{filename}"
	default:
		return path
	}
}
