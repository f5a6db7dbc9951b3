package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeStringData(t *testing.T) {
	record := Canonicalize(SensorReading{
		DeviceID:  "device-001",
		Timestamp: 1700000000000,
		Data:      "21.5",
		DataType:  "temperature",
		Location:  "field-1",
	})
	assert.Equal(t, SensorRecord{
		DeviceID:  "device-001",
		Timestamp: 1700000000000,
		Data:      "21.5",
		DataType:  "temperature",
		Location:  "field-1",
	}, record)
}

// Structured data serializes to JSON without touching the other fields.
func TestCanonicalizeStructuredData(t *testing.T) {
	record := Canonicalize(SensorReading{
		DeviceID:  "device-001",
		Timestamp: 1000,
		Data:      map[string]interface{}{"value": 21.5},
		DataType:  "temperature",
	})
	assert.JSONEq(t, `{"value":21.5}`, record.Data)

	raw := Canonicalize(SensorReading{Data: json.RawMessage(`{"b":2,"a":1}`)})
	assert.Equal(t, `{"b":2,"a":1}`, raw.Data, "raw JSON passes through byte for byte")
}

func TestCanonicalizeNilData(t *testing.T) {
	record := Canonicalize(SensorReading{DeviceID: "d", Timestamp: 1})
	assert.Equal(t, "", record.Data)
}

func TestCanonicalizeAllPreservesOrder(t *testing.T) {
	readings := []SensorReading{
		{DeviceID: "b", Timestamp: 2000, Data: "2"},
		{DeviceID: "a", Timestamp: 1000, Data: "1"},
		{DeviceID: "c", Timestamp: 3000, Data: "3"},
	}
	records := CanonicalizeAll(readings)
	require.Len(t, records, 3)
	for i := range readings {
		assert.Equal(t, readings[i].DeviceID, records[i].DeviceID)
	}
}

func TestRecordEqual(t *testing.T) {
	a := SensorRecord{DeviceID: "d", Timestamp: 1, Data: "x", DataType: "t", Location: "l"}
	b := a
	assert.True(t, a.Equal(b))
	b.Location = "elsewhere"
	assert.False(t, a.Equal(b), "any field difference breaks equality")
}
