package domain

const (
	// SourceMatchThresholdKm is the radius within which an external place is
	// taken to be the same beach as a database record when names disagree.
	SourceMatchThresholdKm = 0.5

	// DedupThresholdKm is the radius within which an unmatched external place
	// is dropped as a near-duplicate of a result already emitted.
	DedupThresholdKm = 0.3
)

// Reconcile merges local index matches and external geocoding results into a
// single ordered sequence with no duplicate beaches.
//
// Local matches come first, in input order. Each external place is then
// matched against the full index: by name first, and only when no name
// matches, by distance to the first beach within SourceMatchThresholdKm. A
// matched beach not yet emitted is appended as an enriched record; one
// already emitted is skipped. Unmatched places are appended last as external
// records unless they fall within DedupThresholdKm of anything already in the
// output.
func Reconcile(localMatches []BeachRecord, places []ExternalPlace, index []BeachRecord) []UnifiedBeachRecord {
	out := make([]UnifiedBeachRecord, 0, len(localMatches)+len(places))
	seen := make(map[string]struct{}, len(localMatches))

	for _, b := range localMatches {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, FromBeach(b))
	}

	var candidates []ExternalPlace
	for _, p := range places {
		match, ok := matchPlace(p, index)
		if !ok {
			candidates = append(candidates, p)
			continue
		}
		if _, dup := seen[match.ID]; dup {
			continue
		}
		seen[match.ID] = struct{}{}
		out = append(out, Enrich(match, p))
	}

	for _, p := range candidates {
		if nearAny(p.Coordinates, out, DedupThresholdKm) {
			continue
		}
		out = append(out, FromPlace(p))
	}
	return out
}

// matchPlace finds the database beach an external place refers to. A name
// match anywhere in the index wins over a proximity match; within each pass
// the first beach in index order wins.
func matchPlace(p ExternalPlace, index []BeachRecord) (BeachRecord, bool) {
	for _, b := range index {
		if NamesMatch(p.Name, b.Name) {
			return b, true
		}
	}
	for _, b := range index {
		if DistanceKm(p.Coordinates, b.Coordinates) <= SourceMatchThresholdKm {
			return b, true
		}
	}
	return BeachRecord{}, false
}

func nearAny(c Coordinates, records []UnifiedBeachRecord, thresholdKm float64) bool {
	for _, r := range records {
		if DistanceKm(c, r.Coordinates) < thresholdKm {
			return true
		}
	}
	return false
}

// FromBeach converts a database beach into a local unified record carrying
// every environmental field.
func FromBeach(b BeachRecord) UnifiedBeachRecord {
	u := UnifiedBeachRecord{
		ID:           unifiedIDForBeach(b.ID),
		Name:         b.Name,
		Neighborhood: b.Neighborhood,
		Coordinates:  b.Coordinates,
		Provenance:   ProvenanceLocal,
	}
	withEnvironment(&u, b)
	return u
}

// Enrich combines an external place with the database beach it was matched
// to. Identity, name and position come from the database; the provider
// contributes the formatted address.
func Enrich(b BeachRecord, p ExternalPlace) UnifiedBeachRecord {
	u := FromBeach(b)
	u.Provenance = ProvenanceEnriched
	if p.Address != "" {
		addr := p.Address
		u.Address = &addr
	}
	return u
}

// FromPlace converts an unmatched external place into a record with no
// environmental data and no database back-reference.
func FromPlace(p ExternalPlace) UnifiedBeachRecord {
	u := UnifiedBeachRecord{
		ID:          unifiedIDForPlace(p),
		Name:        p.Name,
		Coordinates: p.Coordinates,
		Provenance:  ProvenanceExternal,
	}
	if len(p.Context) > 0 {
		u.Neighborhood = p.Context[0]
	}
	if p.Address != "" {
		addr := p.Address
		u.Address = &addr
	}
	return u
}

func withEnvironment(u *UnifiedBeachRecord, b BeachRecord) {
	id := b.ID
	status := b.Status
	wave := b.WaveHeight
	shark := b.SharkRisk
	temp := b.WaterTemperature
	coliform := b.ColiformLevel
	desc := b.Description
	u.BeachID = &id
	u.Status = &status
	u.WaveHeight = &wave
	u.SharkRisk = &shark
	u.WaterTemperature = &temp
	u.ColiformLevel = &coliform
	u.Description = &desc
	if len(b.Amenities) > 0 {
		u.Amenities = append([]string(nil), b.Amenities...)
	}
	if !b.LastUpdate.IsZero() {
		ts := b.LastUpdate
		u.LastUpdate = &ts
	}
}
