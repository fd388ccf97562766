package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/coastalmesh/geocode-gateway/internal/adapter/http"
	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	places        []domain.PlaceRecord
	err           error
	lastQuery     string
	lastProximity *domain.Coordinate
	lastCoord     domain.Coordinate
}

func (m *mockResolver) Forward(_ context.Context, query string, proximity *domain.Coordinate) ([]domain.PlaceRecord, error) {
	m.lastQuery = query
	m.lastProximity = proximity
	return m.places, m.err
}

func (m *mockResolver) Reverse(_ context.Context, coord domain.Coordinate) ([]domain.PlaceRecord, error) {
	m.lastCoord = coord
	return m.places, m.err
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(resolver *mockResolver, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", resolver, &mockReadiness{err: readyErr}, discardLogger())
}

func doRequest(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func austinPlace(t *testing.T) domain.PlaceRecord {
	t.Helper()
	rec, err := domain.NewPlaceRecord([]byte(
		`{"geometry":{"type":"Point","coordinates":[-97.7431,30.2672]},"place_name":"Austin, Texas, United States"}`))
	require.NoError(t, err)
	return rec
}

func TestForwardReturnsPlaces(t *testing.T) {
	resolver := &mockResolver{places: []domain.PlaceRecord{austinPlace(t)}}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/forward?q=Austin&proximity=-97.7,30.2")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Austin", resolver.lastQuery)
	require.NotNil(t, resolver.lastProximity)
	assert.Equal(t, -97.7, resolver.lastProximity.Lon)
	assert.Equal(t, 30.2, resolver.lastProximity.Lat)

	var body struct {
		Query  string            `json:"query"`
		Count  int               `json:"count"`
		Places []json.RawMessage `json:"places"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Austin", body.Query)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Places, 1)
	assert.Contains(t, string(body.Places[0]), "Austin, Texas, United States")
}

func TestForwardMissingQueryReturns400(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/v1/forward")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForwardInvalidProximityReturns400(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/v1/forward?q=Austin&proximity=not-a-pair")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseReturnsPlaces(t *testing.T) {
	resolver := &mockResolver{places: []domain.PlaceRecord{austinPlace(t)}}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/reverse?lat=30.2672&lon=-97.7431")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.2672, resolver.lastCoord.Lat)
	assert.Equal(t, -97.7431, resolver.lastCoord.Lon)

	var body struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "30.2672,-97.7431", body.Query)
	assert.Equal(t, 1, body.Count)
}

func TestReverseMissingParamsReturns400(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/v1/reverse?lat=30.2672")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamStatusErrorReturns502(t *testing.T) {
	resolver := &mockResolver{err: domain.NewHTTPStatusError(http.StatusNotFound)}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/forward?q=Austin")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")
}

func TestUpstreamConnectionErrorReturns502(t *testing.T) {
	resolver := &mockResolver{err: domain.NewConnectionError(fmt.Errorf("dial tcp: connection refused"))}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/reverse?lat=30&lon=-97")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestParseErrorReturns500(t *testing.T) {
	resolver := &mockResolver{err: domain.NewParseError(fmt.Errorf("unexpected end of JSON input"))}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/forward?q=Austin")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBusyResolverReturns503(t *testing.T) {
	resolver := &mockResolver{err: resolve.ErrBusy}
	srv := newTestServer(resolver, nil)

	rec := doRequest(srv, "/v1/forward?q=Austin")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenDraining(t *testing.T) {
	srv := newTestServer(&mockResolver{}, resolve.ErrDraining)

	rec := doRequest(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockResolver{}, nil)

	rec := doRequest(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
