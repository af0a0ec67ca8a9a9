package domain

import "sort"

// SortByProximity returns a copy of beaches ordered by ascending distance from
// origin. Equal distances keep their input order. A nil origin returns the
// input order unchanged.
func SortByProximity(origin *Coordinates, beaches []BeachRecord) []BeachRecord {
	out := make([]BeachRecord, len(beaches))
	copy(out, beaches)
	if origin == nil {
		return out
	}

	type ranked struct {
		beach BeachRecord
		km    float64
	}
	rs := make([]ranked, len(out))
	for i, b := range out {
		rs[i] = ranked{beach: b, km: DistanceKm(*origin, b.Coordinates)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].km < rs[j].km })
	for i, r := range rs {
		out[i] = r.beach
	}
	return out
}
