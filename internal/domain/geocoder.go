package domain

// CompletionFunc receives the outcome of one geocoding exchange, exactly
// once: either the ordered list of usable places (possibly empty) or a
// *GeocodeError. It is invoked on the exchange's own goroutine; callers must
// not assume any particular goroutine.
type CompletionFunc func(places []PlaceRecord, err error)

// Geocoder is the single-flight asynchronous geocoding contract.
//
// At most one exchange is active per Geocoder. ReverseGeocode and
// ForwardGeocode return immediately; while an exchange is active a new call
// is dropped without invoking its callback. Cancel aborts the active
// exchange and returns the geocoder to idle without a final callback; the
// original caller never hears back. Callers that need a definite
// busy/cancelled answer should wrap a Geocoder (see the resolve package)
// rather than expect one from it.
type Geocoder interface {
	// ReverseGeocode resolves a coordinate to candidate places.
	ReverseGeocode(coord Coordinate, complete CompletionFunc)

	// ForwardGeocode resolves free text to candidate places, optionally
	// biased toward proximity. A nil proximity applies no bias.
	ForwardGeocode(query string, proximity *Coordinate, complete CompletionFunc)

	// Cancel aborts the active exchange, if any. Best-effort and
	// fire-and-forget: the geocoder is idle again immediately even if the
	// transport has not finished tearing down.
	Cancel()

	// IsGeocoding reports whether an exchange is currently active.
	IsGeocoding() bool
}
