// Package domain holds the beach search and reconciliation core: the data
// model, name normalization, local search, reconciliation of database and
// geocoding results, and proximity ordering.
//
// # Data Sources
//
// Beaches come from the primary database, where each row carries the bathing
// status published by the state environmental agency together with wave
// height, shark-incident risk, water temperature and coliform level. These
// rows are authoritative and are only read here.
//
// Geocoding results come from an external provider queried per search. They
// describe places ("Praia de Boa Viagem, Recife - PE") but never carry
// environmental data.
//
// # Name Matching
//
// Beach names in Recife almost always start with a generic lead-in:
//
//	"Praia de Boa Viagem"  ->  "boa viagem"
//	"Praia do Pina"        ->  "pina"
//	"Praia dos Carneiros"  ->  "carneiros"
//
// [Normalize] lower-cases, strips diacritics and removes that leading prefix.
// [NamesMatch] accepts equal forms or containment in either direction, so a
// query of "boa" finds "Praia de Boa Viagem". Containment is deliberately
// loose and is paired with distance checks during reconciliation.
//
// # Reconciliation
//
// [Reconcile] emits local matches first, then geocoding results matched to a
// database beach (enriched), then unmatched geocoding results (external).
// Two radii govern it and are kept separate:
//
//	SourceMatchThresholdKm (0.5 km)  external place -> database beach
//	DedupThresholdKm       (0.3 km)  unmatched place -> anything emitted
//
// # Identifiers
//
// Unified records use name-based UUIDs (v5) derived from the database beach
// id or the provider feature id, so the same beach keeps the same identifier
// across searches. See [FromBeach] and [FromPlace].
package domain
