package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
)

// formatRouteMetrics converts duration fields to milliseconds for JSON serialization
func formatRouteMetrics(routes []api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":      route.Method,
			"path":        route.Path,
			"count":       route.Count,
			"errorCount":  route.ErrorCount,
			"avgTime":     route.AvgTime.Milliseconds(),
			"maxTime":     route.MaxTime.Milliseconds(),
			"lastRequest": route.LastRequest,
		}
	}
	return result
}

// formatTraces converts trace durations to milliseconds
func formatTraces(traces []api.RequestTrace) []map[string]interface{} {
	result := make([]map[string]interface{}, len(traces))
	for i, trace := range traces {
		result[i] = map[string]interface{}{
			"requestId": trace.RequestID,
			"method":    trace.Method,
			"path":      trace.Path,
			"status":    trace.Status,
			"startTime": trace.StartTime,
			"duration":  trace.Duration.Milliseconds(),
		}
	}
	return result
}

// MetricsHandler serves the request metrics to admins
type MetricsHandler struct {
	Collector *api.MetricsCollector
	Hub       *notify.Hub
}

func (m MetricsHandler) adminOnly(w http.ResponseWriter, r *http.Request) bool {
	caller, ok := callerFrom(w, r)
	if !ok {
		return false
	}
	if !caller.Is(models.UserTypeAdmin) {
		config.ErrorStatus("metrics are restricted to admins", http.StatusForbidden, w, errors.New("access denied"))
		return false
	}
	return true
}

// GetMetricsDashboard returns the metrics dashboard data
func (m MetricsHandler) GetMetricsDashboard(w http.ResponseWriter, r *http.Request) {
	if !m.adminOnly(w, r) {
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	since := time.Now().Add(-1 * time.Hour)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		if parsed, err := time.ParseDuration(sinceStr); err == nil {
			since = time.Now().Add(-parsed)
		}
	}

	connections := 0
	if m.Hub != nil {
		connections = m.Hub.Connected()
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"summary":          m.Collector.Summary(),
		"slowest":          formatRouteMetrics(m.Collector.SlowestRoutes(limit)),
		"recentTraces":     formatTraces(m.Collector.RecentTraces(limit, since)),
		"eventConnections": connections,
		"filters": map[string]interface{}{
			"limit": limit,
			"since": since,
		},
	})
}

// GetMetricsSummary returns just the summary metrics (lighter endpoint)
func (m MetricsHandler) GetMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if !m.adminOnly(w, r) {
		return
	}
	respond(w, http.StatusOK, m.Collector.Summary())
}
