// Package search answers beach queries by combining the local index with the
// external geocoding provider.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

// BeachSource provides the current list of database beaches.
type BeachSource interface {
	Beaches() []domain.BeachRecord
	Get(id string) (domain.BeachRecord, bool)
}

// Result is the outcome of one search. Notice is non-nil when external
// results could not be fetched and Records holds local matches only; it is
// informational and never means the search failed.
type Result struct {
	Query   string
	Records []domain.UnifiedBeachRecord
	Notice  error
}

// Service runs searches against the local index and, when configured, the
// external geocoding provider.
type Service struct {
	beaches  BeachSource
	searcher domain.PlaceSearcher
	timeout  time.Duration
	fallback domain.Coordinates
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a search service. Pass a nil searcher to serve local
// results only.
func NewService(beaches BeachSource, searcher domain.PlaceSearcher, timeout time.Duration, fallback domain.Coordinates, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		beaches:  beaches,
		searcher: searcher,
		timeout:  timeout,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
	}
}

// ExternalEnabled reports whether searches consult the geocoding provider.
func (s *Service) ExternalEnabled() bool {
	return s.searcher != nil
}

// Beaches returns the current beach list, ordered by name.
func (s *Service) Beaches() []domain.BeachRecord {
	return s.beaches.Beaches()
}

// Beach returns the database beach with the given id.
func (s *Service) Beach(id string) (domain.BeachRecord, bool) {
	return s.beaches.Get(id)
}

// Local returns the local matches for query without contacting the provider.
func (s *Service) Local(query string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Query: query}
	}
	snapshot := s.beaches.Beaches()
	local := domain.SearchLocal(query, snapshot)
	return Result{Query: query, Records: domain.Reconcile(local, nil, snapshot)}
}

// Search returns local matches followed by reconciled external results. A
// geocoding failure degrades to local matches with a Notice.
func (s *Service) Search(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		s.metrics.SearchRequests.WithLabelValues("empty").Inc()
		return Result{Query: query}
	}

	start := time.Now()
	defer func() { s.metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	snapshot := s.beaches.Beaches()
	local := domain.SearchLocal(query, snapshot)

	if s.searcher == nil {
		s.metrics.SearchRequests.WithLabelValues("local_only").Inc()
		return Result{Query: query, Records: domain.Reconcile(local, nil, snapshot)}
	}

	places, err := s.searchPlaces(ctx, query)
	if err != nil && ctx.Err() != nil {
		// The caller went away or superseded the query; the provider is not at fault.
		s.logger.Debug("search cancelled", "query", query, "error", ctx.Err())
		s.metrics.SearchRequests.WithLabelValues("cancelled").Inc()
		return Result{
			Query:   query,
			Records: domain.Reconcile(local, nil, snapshot),
			Notice:  ctx.Err(),
		}
	}
	if err != nil {
		s.logger.Warn("external search failed, serving local results",
			"query", query,
			"local_matches", len(local),
			"recoverable", domain.IsRecoverable(err),
			"error", err,
		)
		s.metrics.SearchRequests.WithLabelValues("fallback").Inc()
		s.metrics.SearchFallbacks.Inc()
		return Result{
			Query:   query,
			Records: domain.Reconcile(local, nil, snapshot),
			Notice:  fmt.Errorf("external results unavailable: %w", err),
		}
	}

	s.metrics.SearchRequests.WithLabelValues("merged").Inc()
	return Result{Query: query, Records: domain.Reconcile(local, places, snapshot)}
}

func (s *Service) searchPlaces(ctx context.Context, query string) ([]domain.ExternalPlace, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.searcher.SearchPlaces(ctx, query)
}

// Nearby returns every indexed beach ordered by distance from origin. A nil
// origin uses the configured fallback location.
func (s *Service) Nearby(origin *domain.Coordinates) []domain.BeachRecord {
	if origin == nil {
		fallback := s.fallback
		origin = &fallback
	}
	return domain.SortByProximity(origin, s.beaches.Beaches())
}
