package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// LookupKind names the direction of a geocoding lookup.
type LookupKind string

const (
	LookupForward LookupKind = "forward"
	LookupReverse LookupKind = "reverse"
)

// LookupResult is the audit event emitted after a lookup resolves
// successfully. Query is the free text for forward lookups and the "lat,lon"
// rendering of the coordinate for reverse lookups.
type LookupResult struct {
	ID         string        `json:"id"`
	Kind       LookupKind    `json:"kind"`
	Query      string        `json:"query"`
	Places     []PlaceRecord `json:"places"`
	ResolvedAt time.Time     `json:"resolved_at"`
}

// NewLookupResult stamps ResolvedAt from the package clock and derives the
// deterministic ID described in the package doc.
func NewLookupResult(kind LookupKind, query string, places []PlaceRecord) LookupResult {
	return LookupResult{
		ID:         lookupID(kind, query),
		Kind:       kind,
		Query:      query,
		Places:     places,
		ResolvedAt: clock.Now().UTC(),
	}
}

func lookupID(kind LookupKind, query string) string {
	sum := sha256.Sum256([]byte(string(kind) + "|" + query))
	return hex.EncodeToString(sum[:])
}
