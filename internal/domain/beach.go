package domain

import (
	"time"
)

// BeachStatus is the bathing condition published by the environmental agency.
type BeachStatus string

const (
	StatusSafe    BeachStatus = "safe"
	StatusWarning BeachStatus = "warning"
	StatusDanger  BeachStatus = "danger"
)

// SharkRisk is the shark-incident risk level for a stretch of coast.
type SharkRisk string

const (
	SharkRiskLow    SharkRisk = "low"
	SharkRiskMedium SharkRisk = "medium"
	SharkRiskHigh   SharkRisk = "high"
)

// ColiformLevel summarizes the fecal coliform measurement of a beach.
type ColiformLevel string

const (
	ColiformNormal   ColiformLevel = "normal"
	ColiformElevated ColiformLevel = "elevated"
	ColiformHigh     ColiformLevel = "high"
)

// Provenance records which data source(s) produced a unified record.
type Provenance string

const (
	// ProvenanceLocal is a record backed only by the primary database.
	ProvenanceLocal Provenance = "local"
	// ProvenanceExternal is a record backed only by the geocoding provider.
	ProvenanceExternal Provenance = "external"
	// ProvenanceEnriched is a geocoding result matched to a database beach.
	ProvenanceEnriched Provenance = "enriched"
)

// Coordinates is a WGS-84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a lat/lng rectangle in degrees, used to restrict geocoding
// to the service area.
type BoundingBox struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// BeachRecord is the authoritative row for one beach in the primary backend.
// The search core treats it as read-only input.
type BeachRecord struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Neighborhood     string        `json:"neighborhood"`
	Coordinates      Coordinates   `json:"coordinates"`
	Status           BeachStatus   `json:"status"`
	WaveHeight       float64       `json:"wave_height"` // meters
	SharkRisk        SharkRisk     `json:"shark_risk"`
	WaterTemperature float64       `json:"water_temperature"` // °C
	ColiformLevel    ColiformLevel `json:"coliform_level"`
	Description      string        `json:"description"`
	Amenities        []string      `json:"amenities"`
	LastUpdate       time.Time     `json:"last_update"`
}

// ExternalPlace is a point of interest returned by the geocoding provider for
// a single query. It is never persisted.
type ExternalPlace struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Context     []string    `json:"context,omitempty"` // locality/neighborhood hints, most specific first
	Category    string      `json:"category,omitempty"`
}

// UnifiedBeachRecord is the merged representation returned to search callers.
// Environmental fields are pointers: they are nil unless a BeachRecord was
// matched, and nil fields are omitted from JSON rather than defaulted.
type UnifiedBeachRecord struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Neighborhood string      `json:"neighborhood"`
	Coordinates  Coordinates `json:"coordinates"`
	Address      *string     `json:"address,omitempty"`

	Status           *BeachStatus   `json:"status,omitempty"`
	WaveHeight       *float64       `json:"wave_height,omitempty"`
	SharkRisk        *SharkRisk     `json:"shark_risk,omitempty"`
	WaterTemperature *float64       `json:"water_temperature,omitempty"`
	ColiformLevel    *ColiformLevel `json:"coliform_level,omitempty"`
	Description      *string        `json:"description,omitempty"`
	Amenities        []string       `json:"amenities,omitempty"`
	LastUpdate       *time.Time     `json:"last_update,omitempty"`

	Provenance Provenance `json:"provenance"`
	BeachID    *string    `json:"beach_id,omitempty"` // back-reference used for likes
}

// HasEnvironmentalData reports whether any environmental field is present.
func (u UnifiedBeachRecord) HasEnvironmentalData() bool {
	return u.Status != nil || u.WaveHeight != nil || u.SharkRisk != nil ||
		u.WaterTemperature != nil || u.ColiformLevel != nil
}
