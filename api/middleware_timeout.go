package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TimeoutMiddleware answers 408 when a request runs longer than timeout. The handler keeps its
// cancelled context; anything it writes after the deadline is discarded.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutWriter{w: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !tw.expire() {
					<-done
					return
				}
				zap.S().Warnw("request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestTimeout)
				w.Write([]byte(`{"error": "Request timeout", "message": "The request took too long to process"}`))
			}
		})
	}
}

type timeoutWriter struct {
	w       http.ResponseWriter
	mu      sync.Mutex
	wrote   bool
	expired bool
}

func (t *timeoutWriter) Header() http.Header {
	return t.w.Header()
}

func (t *timeoutWriter) WriteHeader(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired || t.wrote {
		return
	}
	t.wrote = true
	t.w.WriteHeader(code)
}

func (t *timeoutWriter) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired {
		return 0, http.ErrHandlerTimeout
	}
	t.wrote = true
	return t.w.Write(b)
}

// expire reports whether the timeout response may be written, which is only the case when the
// handler has not started its own
func (t *timeoutWriter) expire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrote {
		return false
	}
	t.expired = true
	return true
}
