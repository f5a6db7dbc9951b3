package types

import (
	"encoding/json"
	"fmt"
)

// SensorReading is a raw reading as it arrives from a device or gateway. Data
// may be a plain string or any structured value; nothing is validated here.
type SensorReading struct {
	DeviceID  string      `json:"deviceId"`
	Timestamp int64       `json:"timestamp"` // milliseconds since Unix epoch
	Data      interface{} `json:"data"`
	DataType  string      `json:"dataType"`
	Location  string      `json:"location"`
}

// SensorRecord is the canonical 5-field form used for leaf hashing. Immutable
// once hashed: two records are equal for hashing purposes iff all five fields
// match byte for byte.
type SensorRecord struct {
	DeviceID  string `json:"deviceId"`
	Timestamp int64  `json:"timestamp"` // milliseconds since Unix epoch
	Data      string `json:"data"`
	DataType  string `json:"dataType"`
	Location  string `json:"location"`
}

// Canonicalize turns a raw reading into its canonical record. Structured data
// values are JSON-serialized as received; no field reordering is performed
// inside Data since only the outer 5-tuple is hashed. Pure, never fails: a
// value that cannot marshal falls back to its fmt representation.
func Canonicalize(r SensorReading) SensorRecord {
	return SensorRecord{
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp,
		Data:      stringifyData(r.Data),
		DataType:  r.DataType,
		Location:  r.Location,
	}
}

// CanonicalizeAll maps Canonicalize over a reading list, preserving order.
func CanonicalizeAll(readings []SensorReading) []SensorRecord {
	records := make([]SensorRecord, len(readings))
	for i, r := range readings {
		records[i] = Canonicalize(r)
	}
	return records
}

func stringifyData(data interface{}) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.RawMessage:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Equal reports whether two canonical records match exactly on all five fields.
func (r SensorRecord) Equal(other SensorRecord) bool {
	return r == other
}

func (r SensorRecord) String() string {
	return fmt.Sprintf("%s/%s@%d", r.DeviceID, r.DataType, r.Timestamp)
}
