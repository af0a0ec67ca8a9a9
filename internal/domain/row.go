package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Defaults for environmental columns that are NULL in the backend.
const (
	DefaultWaveHeight       = 0.0
	DefaultSharkRisk        = SharkRiskLow
	DefaultWaterTemperature = 25.0
	DefaultColiformLevel    = ColiformNormal
)

// BeachRow is a beaches table row as stored, with NULL-able columns as
// pointers. It is the shape shared by database reads and change events.
type BeachRow struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Neighborhood     string    `json:"neighborhood"`
	Status           string    `json:"status"`
	LastUpdate       Timestamp `json:"last_update"`
	CoordinatesLat   float64   `json:"coordinates_lat"`
	CoordinatesLng   float64   `json:"coordinates_lng"`
	Description      *string   `json:"description"`
	Amenities        []string  `json:"amenities"`
	WaveHeight       *float64  `json:"wave_height"`
	SharkRisk        *string   `json:"shark_risk"`
	WaterTemperature *float64  `json:"water_temperature"`
	ColiformLevel    *string   `json:"coliform_level"`
}

// ToRecord validates the row and fills NULL columns with their defaults.
func (r BeachRow) ToRecord() (BeachRecord, error) {
	if r.ID == "" {
		return BeachRecord{}, fmt.Errorf("beach row without id")
	}
	status, err := ParseStatus(r.Status)
	if err != nil {
		return BeachRecord{}, fmt.Errorf("beach %s: %w", r.ID, err)
	}

	b := BeachRecord{
		ID:               r.ID,
		Name:             r.Name,
		Neighborhood:     r.Neighborhood,
		Coordinates:      Coordinates{Lat: r.CoordinatesLat, Lng: r.CoordinatesLng},
		Status:           status,
		WaveHeight:       DefaultWaveHeight,
		SharkRisk:        DefaultSharkRisk,
		WaterTemperature: DefaultWaterTemperature,
		ColiformLevel:    DefaultColiformLevel,
		Amenities:        r.Amenities,
		LastUpdate:       r.LastUpdate.UTC(),
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	if b.Amenities == nil {
		b.Amenities = []string{}
	}
	if r.WaveHeight != nil {
		b.WaveHeight = *r.WaveHeight
	}
	if r.SharkRisk != nil && *r.SharkRisk != "" {
		b.SharkRisk = SharkRisk(*r.SharkRisk)
	}
	if r.WaterTemperature != nil {
		b.WaterTemperature = *r.WaterTemperature
	}
	if r.ColiformLevel != nil && *r.ColiformLevel != "" {
		b.ColiformLevel = ColiformLevel(*r.ColiformLevel)
	}
	return b, nil
}

// timestampLayouts are the encodings Postgres uses for timestamp and
// timestamptz values in JSON payloads.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
}

// Timestamp decodes the timestamp formats found in database change payloads.
// Values without a zone are taken as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
