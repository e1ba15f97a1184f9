package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const slowRequest = time.Second

// RequestIDHeader carries the id assigned to every request
const RequestIDHeader = "X-Request-ID"

// MetricsMiddleware tags each request with an id and records its timing
func MetricsMiddleware(mc *MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			trace := RequestTrace{
				RequestID: requestID,
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    wrapped.statusCode,
				StartTime: start,
				Duration:  time.Since(start),
			}
			mc.Record(trace)

			if trace.Duration > slowRequest {
				zap.S().Warnw("slow request",
					"requestId", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"duration", trace.Duration,
					"status", trace.Status)
			}
		})
	}
}

// responseWriter captures the status code and still allows websocket upgrades
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
