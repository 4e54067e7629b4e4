// Package metrics collects in-process request counters for the HTTP
// transport's /metrics endpoint.
// file: internal/metrics/server_metrics.go
package metrics

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// maxRecentErrors bounds the error ring buffer.
const maxRecentErrors = 10

// ServerMetrics is a point-in-time view of the collector.
type ServerMetrics struct {
	StartTime     time.Time `json:"startTime"`
	UptimeSeconds float64   `json:"uptimeSeconds"`
	GoVersion     string    `json:"goVersion"`
	NumGoroutines int       `json:"numGoroutines"`

	TotalRequests  int64                   `json:"totalRequests"`
	FailedRequests int64                   `json:"failedRequests"`
	Methods        map[string]MethodMetric `json:"methods"`

	LastErrors []ErrorInfo `json:"lastErrors,omitempty"`
}

// MethodMetric aggregates calls to one JSON-RPC method.
type MethodMetric struct {
	Count        int64   `json:"count"`
	Failures     int64   `json:"failures"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// ErrorInfo describes one failed request.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Code      int       `json:"code"`
}

type methodTotals struct {
	count    int64
	failures int64
	total    time.Duration
}

// Collector accumulates request metrics. Safe for concurrent use.
type Collector struct {
	startTime time.Time
	now       func() time.Time

	mu      sync.Mutex
	total   int64
	failed  int64
	methods map[string]*methodTotals
	errors  []ErrorInfo
}

// NewCollector creates a collector whose uptime starts now.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		now:       time.Now,
		methods:   make(map[string]*methodTotals),
	}
}

// RecordRequest counts one dispatched request. code is the JSON-RPC error
// code, or 0 for success.
func (c *Collector) RecordRequest(method string, duration time.Duration, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	m, ok := c.methods[method]
	if !ok {
		m = &methodTotals{}
		c.methods[method] = m
	}
	m.count++
	m.total += duration

	if code != 0 {
		c.failed++
		m.failures++
		c.errors = append(c.errors, ErrorInfo{Timestamp: c.now(), Method: method, Code: code})
		if len(c.errors) > maxRecentErrors {
			c.errors = c.errors[len(c.errors)-maxRecentErrors:]
		}
	}
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() ServerMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	methods := make(map[string]MethodMetric, len(c.methods))
	for name, m := range c.methods {
		avg := 0.0
		if m.count > 0 {
			avg = float64(m.total.Microseconds()) / float64(m.count) / 1000
		}
		methods[name] = MethodMetric{Count: m.count, Failures: m.failures, AvgLatencyMs: avg}
	}

	return ServerMetrics{
		StartTime:      c.startTime,
		UptimeSeconds:  c.now().Sub(c.startTime).Seconds(),
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		TotalRequests:  c.total,
		FailedRequests: c.failed,
		Methods:        methods,
		LastErrors:     append([]ErrorInfo(nil), c.errors...),
	}
}

// MethodNames lists the methods seen so far, sorted.
func (c *Collector) MethodNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
