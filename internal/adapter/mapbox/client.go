package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// contextPrefixes are the Mapbox context layers that describe where a POI
// sits, most specific first.
var contextPrefixes = []string{"neighborhood", "locality", "place"}

// Options tune the forward geocoding request.
type Options struct {
	Language string
	Limit    int
	Area     domain.BoundingBox
}

// Client implements domain.PlaceSearcher using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	opts       Options
	area       s2.Rect
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client restricted to opts.Area.
func NewClient(token string, timeout time.Duration, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		opts:    opts,
		area:    areaRect(opts.Area),
		metrics: metrics,
		logger:  logger,
	}
}

func areaRect(b domain.BoundingBox) s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.MinLat, b.MinLng)).
		AddPoint(s2.LatLngFromDegrees(b.MaxLat, b.MaxLng))
}

// SearchPlaces looks up beach points of interest matching query inside the
// service area. Results that do not mention a beach or fall outside the area
// are dropped.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]domain.ExternalPlace, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	b := c.opts.Area
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape("praia "+query))
	params := url.Values{
		"access_token": {c.token},
		"bbox":         {fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)},
		"types":        {"poi"},
		"limit":        {strconv.Itoa(c.opts.Limit)},
		"language":     {c.opts.Language},
	}

	start := time.Now()
	features, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	places := make([]domain.ExternalPlace, 0, len(features))
	for _, f := range features {
		p, ok := toPlace(f)
		if !ok {
			c.logger.Debug("mapbox feature without coordinates", "id", f.ID)
			continue
		}
		if !domain.IsBeachLike(p) {
			continue
		}
		if !c.area.ContainsLatLng(s2.LatLngFromDegrees(p.Coordinates.Lat, p.Coordinates.Lng)) {
			continue
		}
		places = append(places, p)
	}

	outcome := "success"
	if len(places) == 0 {
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return places, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search request: %w", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: mapbox API error: status %d: %s", domain.ErrNetworkFailure, resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrMalformedPayload, err)
	}
	return mapboxResp.Features, nil
}

func toPlace(f feature) (domain.ExternalPlace, bool) {
	if len(f.Center) != 2 {
		return domain.ExternalPlace{}, false
	}
	p := domain.ExternalPlace{
		ID:   f.ID,
		Name: f.Text,
		// Mapbox uses lon,lat order.
		Coordinates: domain.Coordinates{Lat: f.Center[1], Lng: f.Center[0]},
		Address:     f.PlaceName,
		Category:    f.Properties.Category,
	}
	for _, prefix := range contextPrefixes {
		for _, ctx := range f.Context {
			if strings.HasPrefix(ctx.ID, prefix+".") && ctx.Text != "" {
				p.Context = append(p.Context, ctx.Text)
			}
		}
	}
	return p, true
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string         `json:"id"`
	Center     []float64      `json:"center"` // [lon, lat]
	PlaceName  string         `json:"place_name"`
	Text       string         `json:"text"`
	Relevance  float64        `json:"relevance"`
	Properties properties     `json:"properties"`
	Context    []contextEntry `json:"context"`
}

type properties struct {
	Category string `json:"category"`
	Address  string `json:"address"`
}

type contextEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
