package domain

import "time"

var testUpdated = time.Date(2024, 12, 8, 8, 0, 0, 0, time.UTC)

func boaViagem() BeachRecord {
	return BeachRecord{
		ID:               "1",
		Name:             "Praia de Boa Viagem",
		Neighborhood:     "Boa Viagem",
		Coordinates:      Coordinates{Lat: -8.1150, Lng: -34.8920},
		Status:           StatusSafe,
		WaveHeight:       0.8,
		SharkRisk:        SharkRiskMedium,
		WaterTemperature: 28,
		ColiformLevel:    ColiformNormal,
		Description:      "Uma das praias mais famosas do Recife.",
		Amenities:        []string{"Quiosques", "Chuveiros", "Salva-vidas"},
		LastUpdate:       testUpdated,
	}
}

func pina() BeachRecord {
	return BeachRecord{
		ID:               "2",
		Name:             "Praia do Pina",
		Neighborhood:     "Pina",
		Coordinates:      Coordinates{Lat: -8.0928, Lng: -34.8756},
		Status:           StatusWarning,
		WaveHeight:       0.6,
		SharkRisk:        SharkRiskLow,
		WaterTemperature: 27,
		ColiformLevel:    ColiformElevated,
		LastUpdate:       testUpdated,
	}
}

func brasiliaTeimosa() BeachRecord {
	return BeachRecord{
		ID:               "3",
		Name:             "Praia de Brasília Teimosa",
		Neighborhood:     "Brasília Teimosa",
		Coordinates:      Coordinates{Lat: -8.0820, Lng: -34.8710},
		Status:           StatusDanger,
		WaveHeight:       0.5,
		SharkRisk:        SharkRiskLow,
		WaterTemperature: 27,
		ColiformLevel:    ColiformHigh,
		LastUpdate:       testUpdated,
	}
}

func testIndex() []BeachRecord {
	return []BeachRecord{boaViagem(), pina(), brasiliaTeimosa()}
}
