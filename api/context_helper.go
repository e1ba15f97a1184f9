package api

import (
	"context"
	"time"
)

const (
	// QueryTimeout is the default timeout for the storage work of a single request
	QueryTimeout = 10 * time.Second
	// SweepTimeout bounds an on-demand bulk reconciliation
	SweepTimeout = 2 * time.Minute
)

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, QueryTimeout)
}

// WithSweepTimeout creates a context with the bulk reconciliation timeout
func WithSweepTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, SweepTimeout)
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}
