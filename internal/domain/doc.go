// Package domain models geocoding lookups against a Mapbox-style geocoding API.
//
// # Feature payloads
//
// The upstream API answers every lookup with a JSON object carrying a
// "features" array of GeoJSON-like Point features:
//
//	{
//	  "features": [
//	    {
//	      "geometry": {"type": "Point", "coordinates": [-97.7431, 30.2672]},
//	      "place_name": "Austin, Texas, United States"
//	    }
//	  ]
//	}
//
// Note the GeoJSON coordinate order: [longitude, latitude]. A feature is
// usable only when its geometry is a Point with coordinates present and a
// place_name string exists; [NewPlaceRecord] enforces exactly that and
// nothing more. Features that fail the check are dropped by the response
// parser instead of failing the whole response, and a response without a
// usable "features" array is a valid zero-result answer, not an error.
//
// This payload schema carries no structured address components (country,
// postal code, locality); [PlaceRecord.Address] therefore always reports the
// zero value. Parsing structured components belongs to a different payload
// schema and a different package.
//
// # Lookup IDs
//
// LookupResult IDs are deterministic SHA-256 hashes of kind|query. This lets
// downstream consumers of the audit topic upsert idempotently (ON CONFLICT
// DO NOTHING) and replay safely without coordination. See [NewLookupResult].
package domain
