package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/config"
	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/observability"
)

// Client implements domain.Geocoder against the Mapbox Geocoding API.
//
// A Client holds at most one exchange in flight. A request issued while an
// exchange is active is dropped without invoking its callback, and Cancel
// returns the client to idle without a final callback. Wrap a Client with
// resolve.Resolver when a definite answer for those cases is needed.
type Client struct {
	token      string
	dataset    string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu     sync.Mutex
	active *exchange
}

// exchange tracks one in-flight request.
type exchange struct {
	cancel   context.CancelFunc
	complete domain.CompletionFunc
	// cancelled suppresses the completion callback after Cancel.
	// Guarded by Client.mu.
	cancelled bool
}

// NewClient creates a geocoding client. The http.Client timeout is the only
// timeout applied to an exchange.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:   cfg.MapboxToken,
		dataset: cfg.MapboxDataset,
		baseURL: cfg.MapboxBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.MapboxTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode resolves coord to candidate places. It returns immediately;
// the outcome arrives via complete, exactly once. The call is a no-op while
// another exchange is active.
func (c *Client) ReverseGeocode(coord domain.Coordinate, complete domain.CompletionFunc) {
	// Mapbox uses lon,lat order in the path.
	requestURL := fmt.Sprintf("%s/geocode/%s/%s,%s.json?access_token=%s",
		c.baseURL, c.dataset,
		formatCoord(coord.Lon), formatCoord(coord.Lat),
		url.QueryEscape(c.token))

	c.begin("reverse", requestURL, complete)
}

// ForwardGeocode resolves free-text query to candidate places, optionally
// biased toward proximity. It returns immediately; the outcome arrives via
// complete, exactly once. The call is a no-op while another exchange is active.
func (c *Client) ForwardGeocode(query string, proximity *domain.Coordinate, complete domain.CompletionFunc) {
	requestURL := fmt.Sprintf("%s/geocode/%s/%s.json?access_token=%s",
		c.baseURL, c.dataset,
		escapeQuery(query),
		url.QueryEscape(c.token))
	if proximity != nil {
		requestURL += "&proximity=" + formatCoord(proximity.Lon) + "," + formatCoord(proximity.Lat)
	}

	c.begin("forward", requestURL, complete)
}

// Cancel aborts the active exchange, if any, and returns the client to idle.
// The pending callback is never invoked: the original caller never hears
// back. Best-effort; the transport may still be tearing down when this returns.
func (c *Client) Cancel() {
	c.mu.Lock()
	ex := c.active
	if ex != nil {
		ex.cancelled = true
		c.active = nil
	}
	c.mu.Unlock()

	if ex == nil {
		return
	}
	ex.cancel()
	c.metrics.GeocodeCancelled.Inc()
	c.logger.Debug("geocode exchange cancelled")
}

// IsGeocoding reports whether an exchange is currently active.
func (c *Client) IsGeocoding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// begin claims the single exchange slot and launches the request. While an
// exchange is active the new request is dropped and complete never runs.
func (c *Client) begin(method, requestURL string, complete domain.CompletionFunc) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		c.metrics.GeocodeDropped.Inc()
		c.logger.Debug("geocode request dropped, exchange already active", "method", method)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ex := &exchange{cancel: cancel, complete: complete}
	c.active = ex
	c.mu.Unlock()

	go c.run(ctx, ex, method, requestURL)
}

func (c *Client) run(ctx context.Context, ex *exchange, method, requestURL string) {
	defer ex.cancel()

	places, err := c.fetch(ctx, method, requestURL)
	if err != nil {
		c.logger.Warn("geocode exchange failed", "method", method, "error", err)
	}
	c.finish(ex, places, err)
}

// finish returns the client to idle and delivers the outcome exactly once.
// A cancelled exchange delivers nothing.
func (c *Client) finish(ex *exchange, places []domain.PlaceRecord, err error) {
	c.mu.Lock()
	cancelled := ex.cancelled
	if c.active == ex {
		c.active = nil
	}
	c.mu.Unlock()

	if cancelled {
		return
	}
	ex.complete(places, err)
}

// fetch performs one HTTP exchange and maps the response onto place records.
func (c *Client) fetch(ctx context.Context, method, requestURL string) ([]domain.PlaceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, domain.NewConnectionError(err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, domain.NewConnectionError(err)
	}
	defer resp.Body.Close()
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, domain.NewHTTPStatusError(resp.StatusCode)
	}

	// The whole body is buffered before parsing; no incremental decode.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, domain.NewConnectionError(err)
	}

	places, err := parseFeatureCollection(body)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	outcome := "success"
	if len(places) == 0 {
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
	return places, nil
}

// parseFeatureCollection maps a response body onto place records. A body
// that is not a JSON object is a parse failure. A missing or malformed
// "features" field is a valid zero-result response, and individual features
// that fail validation are dropped; ordering of the rest is preserved.
func parseFeatureCollection(body []byte) ([]domain.PlaceRecord, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, domain.NewParseError(err)
	}
	if doc == nil {
		return nil, domain.NewParseError(errors.New("response body is not a JSON object"))
	}

	rawFeatures, ok := doc["features"]
	if !ok {
		return []domain.PlaceRecord{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawFeatures, &items); err != nil {
		return []domain.PlaceRecord{}, nil
	}

	places := make([]domain.PlaceRecord, 0, len(items))
	for _, item := range items {
		rec, err := domain.NewPlaceRecord(item)
		if err != nil {
			continue
		}
		places = append(places, rec)
	}
	return places, nil
}

// formatCoord renders a coordinate component in its shortest decimal form.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeQuery percent-encodes a free-text query for use as a URL path
// segment. url.PathEscape leaves sub-delimiters such as "&" and "+" intact,
// which the geocoding endpoint would misread as part of its own syntax, so
// everything outside the RFC 3986 unreserved set is escaped. Input is raw
// text; each byte is encoded at most once.
func escapeQuery(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
