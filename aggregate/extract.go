package aggregate

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Omecx/YieldSyncx/types"
)

// Field is one top-level key/value pair of a record's parsed data object, in
// the order it appears in the serialized form.
type Field struct {
	Key   string
	Value interface{}
}

// ExtractionStrategy is one rule for pulling a numeric sample out of a parsed
// data object. Strategies are tried in a fixed order so the extraction policy
// stays auditable and testable in isolation.
type ExtractionStrategy interface {
	Name() string
	Extract(dataType string, fields []Field) (float64, bool)
}

// ByExplicitField extracts a field with a fixed name, e.g. "value".
type ByExplicitField struct {
	Field string
}

func (s ByExplicitField) Name() string { return "explicit:" + s.Field }

func (s ByExplicitField) Extract(dataType string, fields []Field) (float64, bool) {
	for _, f := range fields {
		if f.Key == s.Field {
			return asNumber(f.Value)
		}
	}
	return 0, false
}

// ByTypeNamedField extracts the field named exactly after the record's dataType.
type ByTypeNamedField struct{}

func (ByTypeNamedField) Name() string { return "type-named" }

func (ByTypeNamedField) Extract(dataType string, fields []Field) (float64, bool) {
	for _, f := range fields {
		if f.Key == dataType {
			return asNumber(f.Value)
		}
	}
	return 0, false
}

// FirstNumericField extracts the first numeric field in serialization order.
type FirstNumericField struct{}

func (FirstNumericField) Name() string { return "first-numeric" }

func (FirstNumericField) Extract(dataType string, fields []Field) (float64, bool) {
	for _, f := range fields {
		if v, ok := asNumber(f.Value); ok {
			return v, true
		}
	}
	return 0, false
}

// DefaultStrategies is the extraction order for sensor records: an explicit
// "value" field wins, then a field named after the dataType, then the first
// numeric field found.
func DefaultStrategies() []ExtractionStrategy {
	return []ExtractionStrategy{
		ByExplicitField{Field: "value"},
		ByTypeNamedField{},
		FirstNumericField{},
	}
}

// ExtractValue pulls the numeric sample from a canonical record using the
// given strategies. Scalar data ("21.5") is its own sample; object data goes
// through the strategy list. Records with no extractable number contribute no
// sample but still count toward recordCount — extraction failure degrades
// gracefully and never errors.
func ExtractValue(record types.SensorRecord, strategies []ExtractionStrategy) (float64, bool) {
	data := strings.TrimSpace(record.Data)
	if data == "" {
		return 0, false
	}

	if fields, ok := parseOrderedFields(data); ok {
		for _, s := range strategies {
			if v, found := s.Extract(record.DataType, fields); found {
				return v, true
			}
		}
		return 0, false
	}

	if v, err := strconv.ParseFloat(data, 64); err == nil {
		return v, true
	}
	return 0, false
}

// parseOrderedFields decodes a JSON object into its top-level fields in
// serialization order. Maps cannot be used here: Go map iteration would lose
// the field order the first-numeric strategy depends on.
func parseOrderedFields(data string) ([]Field, bool) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields, true
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
