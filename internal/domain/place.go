package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidFeature reports a feature payload that failed validation.
var ErrInvalidFeature = errors.New("invalid feature payload")

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the coordinate as "lat,lon" using the shortest decimal form.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// AddressComponents holds structured address fields. The feature payload
// schema this module consumes never populates them; see the package doc.
type AddressComponents struct {
	Street             string
	Locality           string
	AdministrativeArea string
	PostalCode         string
	Country            string
}

// PlaceRecord is an immutable view over one validated feature payload.
// All accessors are projections over the stored payload; a record is never
// mutated after construction.
type PlaceRecord struct {
	payload json.RawMessage
	name    string
	coord   Coordinate
}

// featureShape is the subset of a feature payload the record projects.
// Pointer fields distinguish "absent" from "zero value".
type featureShape struct {
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	PlaceName *string `json:"place_name"`
}

// NewPlaceRecord validates payload as a Point feature and wraps it.
// The payload must hold a geometry object with type "Point" and non-empty
// coordinates, and a place_name string. Anything else fails with
// ErrInvalidFeature.
func NewPlaceRecord(payload []byte) (PlaceRecord, error) {
	var f featureShape
	if err := json.Unmarshal(payload, &f); err != nil {
		return PlaceRecord{}, fmt.Errorf("%w: %v", ErrInvalidFeature, err)
	}
	switch {
	case f.Geometry == nil:
		return PlaceRecord{}, fmt.Errorf("%w: missing geometry", ErrInvalidFeature)
	case f.Geometry.Type != "Point":
		return PlaceRecord{}, fmt.Errorf("%w: geometry type %q is not Point", ErrInvalidFeature, f.Geometry.Type)
	case len(f.Geometry.Coordinates) == 0:
		return PlaceRecord{}, fmt.Errorf("%w: missing geometry coordinates", ErrInvalidFeature)
	case f.PlaceName == nil:
		return PlaceRecord{}, fmt.Errorf("%w: missing place_name", ErrInvalidFeature)
	}

	rec := PlaceRecord{payload: cloneBytes(payload)}
	rec.derive(f)
	return rec, nil
}

// derive projects the parsed shape onto the record's accessor fields.
func (p *PlaceRecord) derive(f featureShape) {
	if f.PlaceName != nil {
		p.name = *f.PlaceName
	}
	if f.Geometry != nil {
		// [lon, lat] per GeoJSON.
		if len(f.Geometry.Coordinates) > 0 {
			p.coord.Lon = f.Geometry.Coordinates[0]
		}
		if len(f.Geometry.Coordinates) > 1 {
			p.coord.Lat = f.Geometry.Coordinates[1]
		}
	}
}

// Name returns the feature's place_name, untransformed.
func (p PlaceRecord) Name() string { return p.name }

// Coordinate returns the feature's Point location.
func (p PlaceRecord) Coordinate() Coordinate { return p.coord }

// Address returns the structured address components, which are always empty
// for this payload schema.
func (p PlaceRecord) Address() AddressComponents { return AddressComponents{} }

// Copy returns an independent record wrapping the same validated payload.
func (p PlaceRecord) Copy() PlaceRecord {
	return PlaceRecord{
		payload: cloneBytes(p.payload),
		name:    p.name,
		coord:   p.coord,
	}
}

// MarshalJSON emits the raw feature payload.
func (p PlaceRecord) MarshalJSON() ([]byte, error) {
	if p.payload == nil {
		return []byte("null"), nil
	}
	return cloneBytes(p.payload), nil
}

// UnmarshalJSON restores a record from a payload persisted by MarshalJSON.
// The payload was validated when the record was first constructed and is
// trusted as-is; only a structural decode failure is reported.
func (p *PlaceRecord) UnmarshalJSON(data []byte) error {
	var f featureShape
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode place payload: %w", err)
	}
	p.payload = cloneBytes(data)
	p.derive(f)
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
