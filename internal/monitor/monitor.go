// Package monitor implements the Monitor (C8): process-wide atomic
// counters, a bounded ring buffer of recent request traces, and an
// aggregated report with recommendations — grounded on the latency-capture
// idiom of internal/middleware's RequestLogger, generalized into a reusable
// per-phase stopwatch.
package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
)

// Phase names a timed stage of PlanItinerary.
type Phase string

const (
	PhaseGeocode  Phase = "geocode"
	PhasePairwise Phase = "pairwise"
	PhasePlanning Phase = "planning"
	PhaseBuild    Phase = "build"
)

const defaultRingCapacity = 500

// RequestTrace records one completed PlanItinerary call.
type RequestTrace struct {
	SessionID    string
	At           time.Time
	Success      bool
	FallbackUsed bool
	ErrorKind    apperr.Kind // empty when Success
	PhaseMillis  map[Phase]int64
	TotalMillis  int64
}

// Monitor is the process-wide metrics singleton. Safe for concurrent use.
type Monitor struct {
	totalRequests   atomic.Int64
	successes       atomic.Int64
	failures        atomic.Int64
	fallbacks       atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	retries         atomic.Int64
	providerCalls   atomic.Int64

	mu              sync.Mutex
	failuresByKind  map[apperr.Kind]int64
	providerByOp    map[string]int64
	ring            []RequestTrace
	ringCap         int
	ringPos         int
	ringLen         int
}

// New builds a Monitor with the given ring buffer capacity (0 uses the
// spec default of 500).
func New(ringCapacity int) *Monitor {
	if ringCapacity <= 0 {
		ringCapacity = defaultRingCapacity
	}
	return &Monitor{
		failuresByKind: make(map[apperr.Kind]int64),
		providerByOp:   make(map[string]int64),
		ring:           make([]RequestTrace, ringCapacity),
		ringCap:        ringCapacity,
	}
}

// Span starts a phase stopwatch and returns a func to call when the phase
// completes; the elapsed time is accumulated into dest[phase].
func (m *Monitor) Span(dest map[Phase]int64, phase Phase) func() {
	start := time.Now()
	return func() {
		dest[phase] += time.Since(start).Milliseconds()
	}
}

// RecordProviderCall increments the provider-call counter for op (e.g.
// "geocode", "transit").
func (m *Monitor) RecordProviderCall(op string) {
	m.providerCalls.Add(1)
	m.mu.Lock()
	m.providerByOp[op]++
	m.mu.Unlock()
}

// RecordRetry increments the retry counter.
func (m *Monitor) RecordRetry() { m.retries.Add(1) }

// RecordCacheHit increments the cache-hit counter.
func (m *Monitor) RecordCacheHit() { m.cacheHits.Add(1) }

// RecordCacheMiss increments the cache-miss counter.
func (m *Monitor) RecordCacheMiss() { m.cacheMisses.Add(1) }

// RecordRequest appends a completed request's trace and updates the
// aggregate counters. It is the single entry point ItineraryService calls
// once per PlanItinerary invocation.
func (m *Monitor) RecordRequest(trace RequestTrace) {
	m.totalRequests.Add(1)
	if trace.Success {
		m.successes.Add(1)
	} else {
		m.failures.Add(1)
	}
	if trace.FallbackUsed {
		m.fallbacks.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if trace.ErrorKind != "" {
		m.failuresByKind[trace.ErrorKind]++
	}

	m.ring[m.ringPos] = trace
	m.ringPos = (m.ringPos + 1) % m.ringCap
	if m.ringLen < m.ringCap {
		m.ringLen++
	}
}

// Stats is a point-in-time snapshot of the process-wide counters.
type Stats struct {
	TotalRequests  int64
	Successes      int64
	Failures       int64
	FallbacksUsed  int64
	CacheHits      int64
	CacheMisses    int64
	Retries        int64
	ProviderCalls  int64
	FailuresByKind map[apperr.Kind]int64
	ProviderByOp   map[string]int64
}

// Stats returns a snapshot of all counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind := make(map[apperr.Kind]int64, len(m.failuresByKind))
	for k, v := range m.failuresByKind {
		byKind[k] = v
	}
	byOp := make(map[string]int64, len(m.providerByOp))
	for k, v := range m.providerByOp {
		byOp[k] = v
	}

	return Stats{
		TotalRequests:  m.totalRequests.Load(),
		Successes:      m.successes.Load(),
		Failures:       m.failures.Load(),
		FallbacksUsed:  m.fallbacks.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		Retries:        m.retries.Load(),
		ProviderCalls:  m.providerCalls.Load(),
		FailuresByKind: byKind,
		ProviderByOp:   byOp,
	}
}

// RecentLogs returns up to limit most-recent traces, newest first.
// When errorsOnly is set, only failed requests are returned.
func (m *Monitor) RecentLogs(limit int, errorsOnly bool) []RequestTrace {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RequestTrace, 0, limit)
	for i := 0; i < m.ringLen && len(out) < limit; i++ {
		idx := (m.ringPos - 1 - i + m.ringCap) % m.ringCap
		tr := m.ring[idx]
		if errorsOnly && tr.Success {
			continue
		}
		out = append(out, tr)
	}
	return out
}

// Report is the aggregated summary Monitor.Report() returns.
type Report struct {
	Stats           Stats
	FallbackRate    float64
	FailureRate     float64
	Recommendations []string
}

// Report computes a summary report with string recommendations, e.g.
// flagging a fallback rate that suggests a misconfigured map provider.
func (m *Monitor) Report() Report {
	stats := m.Stats()
	var fallbackRate, failureRate float64
	if stats.TotalRequests > 0 {
		fallbackRate = float64(stats.FallbacksUsed) / float64(stats.TotalRequests)
		failureRate = float64(stats.Failures) / float64(stats.TotalRequests)
	}

	var recs []string
	if fallbackRate > 0.20 {
		recs = append(recs, "fallback rate > 20%: check map provider credentials and quota")
	}
	if failureRate > 0.05 {
		recs = append(recs, "failure rate > 5%: inspect RecentLogs(errorsOnly=true) for the dominant error kind")
	}
	if stats.ProviderCalls > 0 && float64(stats.Retries)/float64(stats.ProviderCalls) > 0.30 {
		recs = append(recs, "retry rate > 30% of provider calls: map provider may be rate-limiting aggressively")
	}
	if stats.CacheHits+stats.CacheMisses > 0 {
		hitRate := float64(stats.CacheHits) / float64(stats.CacheHits+stats.CacheMisses)
		if hitRate < 0.10 {
			recs = append(recs, "cache hit rate < 10%: TTLs may be too short or capacity too low for this traffic")
		}
	}

	return Report{
		Stats:           stats,
		FallbackRate:    fallbackRate,
		FailureRate:     failureRate,
		Recommendations: recs,
	}
}

// Reset zeroes all counters and clears the ring buffer. Intended for tests
// and operator-triggered resets, not normal request handling.
func (m *Monitor) Reset() {
	m.totalRequests.Store(0)
	m.successes.Store(0)
	m.failures.Store(0)
	m.fallbacks.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.retries.Store(0)
	m.providerCalls.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.failuresByKind = make(map[apperr.Kind]int64)
	m.providerByOp = make(map[string]int64)
	m.ring = make([]RequestTrace, m.ringCap)
	m.ringPos = 0
	m.ringLen = 0
}
