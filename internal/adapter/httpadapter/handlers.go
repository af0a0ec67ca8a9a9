package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/search"
)

type listResponse struct {
	Count   int                  `json:"count"`
	Beaches []domain.BeachRecord `json:"beaches"`
}

type searchResponse struct {
	Query   string                      `json:"query"`
	Results []domain.UnifiedBeachRecord `json:"results"`
	Loading bool                        `json:"loading,omitempty"`
	Notice  string                      `json:"notice,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newSearchResponse(query string, records []domain.UnifiedBeachRecord, notice error) searchResponse {
	resp := searchResponse{Query: query, Results: records}
	if resp.Results == nil {
		resp.Results = []domain.UnifiedBeachRecord{}
	}
	if notice != nil {
		resp.Notice = notice.Error()
	}
	return resp
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	beaches := s.svc.Beaches()
	if beaches == nil {
		beaches = []domain.BeachRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, listResponse{Count: len(beaches), Beaches: beaches})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	beach, ok := s.svc.Beach(id)
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("beach %q not found", id)})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, beach)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	result := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	sharedobs.WriteJSON(w, http.StatusOK, newSearchResponse(result.Query, result.Records, result.Notice))
}

// handleSearchStream answers with server-sent events: local matches first,
// then the merged results once the geocoding provider responds.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	// A session publishes at most two states per search.
	updates := make(chan search.State, 2)
	session := search.NewSession(s.svc,
		search.WithDebounce(0),
		search.WithOnChange(func(st search.State) { updates <- st }),
	)
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	session.Search(r.URL.Query().Get("q"))
	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-updates:
			resp := newSearchResponse(st.Query, st.Records, st.Notice)
			resp.Loading = st.Loading
			if err := writeEvent(w, resp); err != nil {
				s.logger.Warn("search stream write failed", "error", err)
				return
			}
			flusher.Flush()
			if !st.Loading {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: results\ndata: %s\n\n", data)
	return err
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	origin, err := parseOrigin(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	beaches := s.svc.Nearby(origin)
	if beaches == nil {
		beaches = []domain.BeachRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, listResponse{Count: len(beaches), Beaches: beaches})
}

// parseOrigin reads lat and lng query parameters. Both absent means the
// caller has no location and nil is returned.
func parseOrigin(r *http.Request) (*domain.Coordinates, error) {
	q := r.URL.Query()
	latRaw, lngRaw := q.Get("lat"), q.Get("lng")
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lngRaw == "" {
		return nil, fmt.Errorf("lat and lng must be given together")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid lat %q", latRaw)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid lng %q", lngRaw)
	}
	return &domain.Coordinates{Lat: lat, Lng: lng}, nil
}
