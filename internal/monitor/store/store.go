// Package store implements the MetricsStore (C8a): it persists one row per
// Monitor.Report() call into Postgres. Writes are fire-and-forget with a
// bounded timeout — a failure logs a warning and never blocks or fails the
// calling request, since this is observability, not itinerary persistence.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shiva/tripweaver/internal/monitor"
)

const writeTimeout = 2 * time.Second

// MetricsStore persists Monitor reports to Postgres.
type MetricsStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New builds a MetricsStore over the given pool.
func New(pool *pgxpool.Pool, logger *zap.Logger) *MetricsStore {
	return &MetricsStore{pool: pool, logger: logger}
}

// Record inserts one row for report. It never returns an error to the
// caller: failures are logged and swallowed, matching spec.md's framing of
// the metrics store as best-effort observability.
func (s *MetricsStore) Record(ctx context.Context, report monitor.Report) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	recs := report.Recommendations
	if recs == nil {
		recs = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO planner_metrics (
			total_requests, successes, failures, fallbacks_used,
			cache_hits, cache_misses, retries, provider_calls,
			fallback_rate, failure_rate, recommendations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.Stats.TotalRequests, report.Stats.Successes, report.Stats.Failures, report.Stats.FallbacksUsed,
		report.Stats.CacheHits, report.Stats.CacheMisses, report.Stats.Retries, report.Stats.ProviderCalls,
		report.FallbackRate, report.FailureRate, recs,
	)
	if err != nil {
		s.logger.Warn("metrics store: failed to persist report", zap.Error(err))
	}
}
