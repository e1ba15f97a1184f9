package api

import (
	"regexp"
	"sort"
	"sync"
	"time"
)

var objectIDSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)

// RequestTrace is the timing of a single request
type RequestTrace struct {
	RequestID string        `json:"requestId"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
}

// RouteMetrics aggregates the traces of one route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector aggregates request traces in the background. Traces that arrive while the
// buffer is full are dropped.
type MetricsCollector struct {
	mu        sync.RWMutex
	recent    []RequestTrace
	maxTraces int
	routes    map[string]*RouteMetrics
	started   time.Time
	requests  int64
	errors    int64

	traces chan RequestTrace
	stop   chan struct{}
	once   sync.Once
}

// NewMetricsCollector starts a collector that keeps the last maxTraces traces
func NewMetricsCollector(maxTraces int) *MetricsCollector {
	mc := &MetricsCollector{
		recent:    make([]RequestTrace, 0, maxTraces),
		maxTraces: maxTraces,
		routes:    map[string]*RouteMetrics{},
		started:   time.Now(),
		traces:    make(chan RequestTrace, 1000),
		stop:      make(chan struct{}),
	}
	go mc.process()
	return mc
}

// Record queues a trace without blocking
func (mc *MetricsCollector) Record(trace RequestTrace) {
	select {
	case mc.traces <- trace:
	default:
	}
}

// Close stops the background processor
func (mc *MetricsCollector) Close() {
	mc.once.Do(func() { close(mc.stop) })
}

func (mc *MetricsCollector) process() {
	for {
		select {
		case trace := <-mc.traces:
			mc.add(trace)
		case <-mc.stop:
			return
		}
	}
}

func (mc *MetricsCollector) add(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.recent) >= mc.maxTraces && mc.maxTraces > 0 {
		mc.recent = mc.recent[1:]
	}
	mc.recent = append(mc.recent, trace)

	path := normalizeRoutePath(trace.Path)
	key := trace.Method + " " + path
	route, ok := mc.routes[key]
	if !ok {
		route = &RouteMetrics{Method: trace.Method, Path: path}
		mc.routes[key] = route
	}
	route.Count++
	route.TotalTime += trace.Duration
	route.AvgTime = route.TotalTime / time.Duration(route.Count)
	if trace.Duration > route.MaxTime {
		route.MaxTime = trace.Duration
	}
	route.LastRequest = trace.StartTime

	mc.requests++
	if trace.Status >= 400 {
		route.ErrorCount++
		mc.errors++
	}
}

// Summary returns the totals since the collector started
func (mc *MetricsCollector) Summary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var errorRate float64
	if mc.requests > 0 {
		errorRate = float64(mc.errors) / float64(mc.requests)
	}
	return map[string]interface{}{
		"totalRequests": mc.requests,
		"totalErrors":   mc.errors,
		"errorRate":     errorRate,
		"since":         mc.started,
		"routeCount":    len(mc.routes),
		"traceCount":    len(mc.recent),
	}
}

// RecentTraces returns up to limit traces that started after since, newest first
func (mc *MetricsCollector) RecentTraces(limit int, since time.Time) []RequestTrace {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]RequestTrace, 0, limit)
	for i := len(mc.recent) - 1; i >= 0 && len(out) < limit; i-- {
		if mc.recent[i].StartTime.Before(since) {
			break
		}
		out = append(out, mc.recent[i])
	}
	return out
}

// SlowestRoutes returns up to limit routes by descending average time
func (mc *MetricsCollector) SlowestRoutes(limit int) []RouteMetrics {
	mc.mu.RLock()
	routes := make([]RouteMetrics, 0, len(mc.routes))
	for _, r := range mc.routes {
		routes = append(routes, *r)
	}
	mc.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool { return routes[i].AvgTime > routes[j].AvgTime })
	if limit > 0 && len(routes) > limit {
		routes = routes[:limit]
	}
	return routes
}

// normalizeRoutePath replaces ObjectID segments so /cases/<id>/file groups as one route
func normalizeRoutePath(path string) string {
	for objectIDSegment.MatchString(path) {
		path = objectIDSegment.ReplaceAllString(path, "/{id}$1")
	}
	return path
}
