package search

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/index"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

var recifeCentre = domain.Coordinates{Lat: -8.0578, Lng: -34.8829}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBeaches() []domain.BeachRecord {
	return []domain.BeachRecord{
		{ID: "1", Name: "Praia de Boa Viagem", Neighborhood: "Boa Viagem", Coordinates: domain.Coordinates{Lat: -8.1150, Lng: -34.8920}, Status: domain.StatusSafe, SharkRisk: domain.SharkRiskMedium, ColiformLevel: domain.ColiformNormal, WaterTemperature: 28},
		{ID: "2", Name: "Praia do Pina", Neighborhood: "Pina", Coordinates: domain.Coordinates{Lat: -8.0928, Lng: -34.8756}, Status: domain.StatusWarning, SharkRisk: domain.SharkRiskLow, ColiformLevel: domain.ColiformElevated, WaterTemperature: 27},
		{ID: "3", Name: "Praia de Brasília Teimosa", Neighborhood: "Brasília Teimosa", Coordinates: domain.Coordinates{Lat: -8.0820, Lng: -34.8710}, Status: domain.StatusDanger, SharkRisk: domain.SharkRiskLow, ColiformLevel: domain.ColiformHigh, WaterTemperature: 27},
	}
}

func testIndex() *index.Index {
	idx := index.New()
	idx.Replace(testBeaches())
	return idx
}

func candeias() domain.ExternalPlace {
	return domain.ExternalPlace{ID: "poi.6", Name: "Praia de Candeias", Address: "Candeias, Jaboatão dos Guararapes - PE", Coordinates: domain.Coordinates{Lat: -8.2000, Lng: -34.9200}}
}

func paiva() domain.ExternalPlace {
	return domain.ExternalPlace{ID: "poi.4", Name: "Praia do Paiva", Coordinates: domain.Coordinates{Lat: -8.2800, Lng: -34.9500}}
}

// stubSearcher records queries and delegates to fn.
type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	done    int
	fn      func(ctx context.Context, query string) ([]domain.ExternalPlace, error)
}

func (s *stubSearcher) SearchPlaces(ctx context.Context, query string) ([]domain.ExternalPlace, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	places, err := s.fn(ctx, query)

	s.mu.Lock()
	s.done++
	s.mu.Unlock()
	return places, err
}

func (s *stubSearcher) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *stubSearcher) completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func returning(places ...domain.ExternalPlace) *stubSearcher {
	return &stubSearcher{fn: func(context.Context, string) ([]domain.ExternalPlace, error) {
		return places, nil
	}}
}

func newTestService(searcher domain.PlaceSearcher) *Service {
	return NewService(testIndex(), searcher, time.Second, recifeCentre, testLogger(), observability.NewMetricsForTesting())
}

func provenances(records []domain.UnifiedBeachRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.Provenance) + ":" + r.Name
	}
	return out
}
