package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// unifiedNamespace scopes the name-based UUIDs assigned to unified records so
// they can never collide with backend or provider identifiers.
var unifiedNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("unified.beach-safety-search"))

// unifiedIDForBeach derives the unified identifier for a record backed by a
// database beach. Local and enriched records for the same beach share it, so
// a beach keeps its identifier whichever path surfaced it.
func unifiedIDForBeach(beachID string) string {
	return uuid.NewSHA1(unifiedNamespace, []byte("beach:"+beachID)).String()
}

// unifiedIDForPlace derives the unified identifier for an external-only
// record. Providers occasionally omit feature ids, in which case the
// normalized name and rounded coordinates stand in.
func unifiedIDForPlace(p ExternalPlace) string {
	key := p.ID
	if key == "" {
		key = fmt.Sprintf("%s|%.5f,%.5f", Normalize(p.Name), p.Coordinates.Lat, p.Coordinates.Lng)
	}
	return uuid.NewSHA1(unifiedNamespace, []byte("place:"+key)).String()
}
