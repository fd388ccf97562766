package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validFeature = `{
	"geometry": {"type": "Point", "coordinates": [-97.7431, 30.2672]},
	"place_name": "Austin, Texas, United States",
	"relevance": 0.95
}`

func TestNewPlaceRecord_Valid(t *testing.T) {
	rec, err := NewPlaceRecord([]byte(validFeature))
	require.NoError(t, err)

	assert.Equal(t, "Austin, Texas, United States", rec.Name())
	assert.Equal(t, 30.2672, rec.Coordinate().Lat)
	assert.Equal(t, -97.7431, rec.Coordinate().Lon)
	assert.Equal(t, AddressComponents{}, rec.Address())
}

func TestNewPlaceRecord_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing geometry", `{"place_name": "Austin"}`},
		{"null geometry", `{"geometry": null, "place_name": "Austin"}`},
		{"non-Point geometry", `{"geometry": {"type": "Polygon", "coordinates": [1, 2]}, "place_name": "Austin"}`},
		{"missing coordinates", `{"geometry": {"type": "Point"}, "place_name": "Austin"}`},
		{"empty coordinates", `{"geometry": {"type": "Point", "coordinates": []}, "place_name": "Austin"}`},
		{"missing place_name", `{"geometry": {"type": "Point", "coordinates": [1, 2]}}`},
		{"non-string place_name", `{"geometry": {"type": "Point", "coordinates": [1, 2]}, "place_name": 7}`},
		{"not an object", `[1, 2, 3]`},
		{"not JSON", `{{{`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPlaceRecord([]byte(tc.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFeature))
		})
	}
}

func TestPlaceRecord_Copy(t *testing.T) {
	rec, err := NewPlaceRecord([]byte(validFeature))
	require.NoError(t, err)

	dup := rec.Copy()
	assert.Equal(t, rec.Name(), dup.Name())
	assert.Equal(t, rec.Coordinate(), dup.Coordinate())

	orig, err := rec.MarshalJSON()
	require.NoError(t, err)
	copied, err := dup.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(orig), string(copied))
}

func TestPlaceRecord_JSONRoundTrip(t *testing.T) {
	rec, err := NewPlaceRecord([]byte(validFeature))
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, validFeature, string(data))

	var restored PlaceRecord
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, rec.Name(), restored.Name())
	assert.Equal(t, rec.Coordinate(), restored.Coordinate())
}

func TestPlaceRecord_MarshalZeroValue(t *testing.T) {
	data, err := json.Marshal(PlaceRecord{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestCoordinate_String(t *testing.T) {
	c := Coordinate{Lat: 30.2672, Lon: -97.7431}
	assert.Equal(t, "30.2672,-97.7431", c.String())
}
