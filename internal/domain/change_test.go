package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeachChange_StatusChanged(t *testing.T) {
	before := pina()
	after := pina()
	after.Status = StatusDanger

	assert.True(t, BeachChange{Op: ChangeUpdate, New: after, Old: &before}.StatusChanged())
	assert.False(t, BeachChange{Op: ChangeUpdate, New: before, Old: &before}.StatusChanged())
	assert.False(t, BeachChange{Op: ChangeInsert, New: after}.StatusChanged())
}

func TestNewStatusNotification(t *testing.T) {
	now := time.Date(2024, 12, 9, 10, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	before := pina()
	after := pina()
	after.Status = StatusSafe

	n := NewStatusNotification(BeachChange{Op: ChangeUpdate, New: after, Old: &before}, "user-1")

	assert.Equal(t, "2", n.BeachID)
	assert.Equal(t, "Praia do Pina", n.BeachName)
	assert.Equal(t, "user-1", n.UserID)
	assert.Equal(t, StatusWarning, n.OldStatus)
	assert.Equal(t, StatusSafe, n.NewStatus)
	assert.Equal(t, "🌊 Praia do Pina", n.Title)
	assert.Equal(t, `Status mudou de "Atenção" para "Própria para banho"`, n.Body)
	assert.Equal(t, now, n.NotifiedAt)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("danger")
	require.NoError(t, err)
	assert.Equal(t, StatusDanger, s)

	_, err = ParseStatus("closed")
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Imprópria para banho", StatusLabel(StatusDanger))
	assert.Equal(t, "unknown", StatusLabel(BeachStatus("unknown")))
}

func TestDecodeChange(t *testing.T) {
	t.Run("update with full old record", func(t *testing.T) {
		raw := RawChange{Value: []byte(`{
			"type": "UPDATE",
			"table": "beaches",
			"record": {"id": "2", "name": "Praia do Pina", "neighborhood": "Pina", "status": "danger",
				"last_update": "2024-12-09T10:00:00+00:00", "coordinates_lat": -8.0928, "coordinates_lng": -34.8756,
				"description": null, "amenities": ["Quiosques"], "wave_height": 1.1, "shark_risk": "medium",
				"water_temperature": null, "coliform_level": "high"},
			"old_record": {"id": "2", "name": "Praia do Pina", "neighborhood": "Pina", "status": "warning",
				"last_update": "2024-12-08 08:00:00", "coordinates_lat": -8.0928, "coordinates_lng": -34.8756}
		}`)}

		change, err := DecodeChange(raw)
		require.NoError(t, err)

		assert.Equal(t, ChangeUpdate, change.Op)
		assert.Equal(t, StatusDanger, change.New.Status)
		assert.Equal(t, 1.1, change.New.WaveHeight)
		assert.Equal(t, DefaultWaterTemperature, change.New.WaterTemperature)
		assert.Equal(t, ColiformHigh, change.New.ColiformLevel)
		assert.Equal(t, time.Date(2024, 12, 9, 10, 0, 0, 0, time.UTC), change.New.LastUpdate)
		require.NotNil(t, change.Old)
		assert.Equal(t, StatusWarning, change.Old.Status)
		assert.Equal(t, time.Date(2024, 12, 8, 8, 0, 0, 0, time.UTC), change.Old.LastUpdate)
		assert.True(t, change.StatusChanged())
	})

	t.Run("update with key-only old record", func(t *testing.T) {
		raw := RawChange{Value: []byte(`{"type":"UPDATE","record":{"id":"2","name":"Praia do Pina","status":"safe"},"old_record":{"id":"2"}}`)}

		change, err := DecodeChange(raw)
		require.NoError(t, err)
		assert.Nil(t, change.Old)
	})

	t.Run("insert", func(t *testing.T) {
		raw := RawChange{Value: []byte(`{"type":"INSERT","table":"beaches","record":{"id":"9","name":"Praia de Candeias","status":"safe"},"old_record":null}`)}

		change, err := DecodeChange(raw)
		require.NoError(t, err)
		assert.Equal(t, ChangeInsert, change.Op)
		assert.Equal(t, "Praia de Candeias", change.New.Name)
		assert.Equal(t, []string{}, change.New.Amenities)
		assert.Equal(t, DefaultSharkRisk, change.New.SharkRisk)
	})

	t.Run("delete is ignored", func(t *testing.T) {
		_, err := DecodeChange(RawChange{Value: []byte(`{"type":"DELETE","table":"beaches","old_record":{"id":"2"}}`)})
		assert.ErrorIs(t, err, ErrIgnoredChange)
	})

	t.Run("other table is ignored", func(t *testing.T) {
		_, err := DecodeChange(RawChange{Value: []byte(`{"type":"INSERT","table":"beach_likes","record":{"id":"1"}}`)})
		assert.ErrorIs(t, err, ErrIgnoredChange)
	})

	errorCases := map[string]string{
		"invalid json":   `{invalid`,
		"unknown type":   `{"type":"TRUNCATE"}`,
		"missing record": `{"type":"INSERT"}`,
		"missing id":     `{"type":"INSERT","record":{"name":"x","status":"safe"}}`,
		"invalid status": `{"type":"INSERT","record":{"id":"1","status":"closed"}}`,
		"bad timestamp":  `{"type":"INSERT","record":{"id":"1","status":"safe","last_update":"yesterday"}}`,
		"bad old status": `{"type":"UPDATE","record":{"id":"1","status":"safe"},"old_record":{"status":"closed"}}`,
	}
	for name, payload := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeChange(RawChange{Value: []byte(payload)})
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrIgnoredChange)
		})
	}
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := Timestamp{Time: time.Date(2024, 12, 9, 10, 0, 0, 0, time.UTC)}
	data, err := ts.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-09T10:00:00Z"`, string(data))

	data, err = Timestamp{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
