//go:build mapbox

package mapbox

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		dataset:    "mapbox.places",
		baseURL:    "https://api.tiles.mapbox.com/v4",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	ch := make(chan outcome, 1)
	c.ForwardGeocode("Austin, Texas", nil, collect(ch))

	out := await(t, ch)
	require.NoError(t, out.err)
	require.NotEmpty(t, out.places)

	first := out.places[0]
	assert.Contains(t, first.Name(), "Austin")
	assert.InDelta(t, 30.27, first.Coordinate().Lat, 0.5, "lat should be near Austin")
	assert.InDelta(t, -97.74, first.Coordinate().Lon, 0.5, "lon should be near Austin")
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Austin, TX coordinates
	ch := make(chan outcome, 1)
	c.ReverseGeocode(domain.Coordinate{Lat: 30.2672, Lon: -97.7431}, collect(ch))

	out := await(t, ch)
	require.NoError(t, out.err)
	require.NotEmpty(t, out.places)
	assert.NotEmpty(t, out.places[0].Name())
}

func TestSmoke_ForwardGeocode_NonsenseQuery(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return results for nonsense queries; verify
	// the client handles any response gracefully (no error).
	ch := make(chan outcome, 1)
	c.ForwardGeocode("XYZNONEXISTENT99 && ???", nil, collect(ch))

	out := await(t, ch)
	require.NoError(t, out.err)
}
