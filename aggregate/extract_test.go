package aggregate

import (
	"testing"

	"github.com/Omecx/YieldSyncx/types"
	"github.com/stretchr/testify/assert"
)

func extractRecord(dataType, data string) types.SensorRecord {
	return types.SensorRecord{DeviceID: "d", Timestamp: 1, Data: data, DataType: dataType}
}

func TestExtractValueOrder(t *testing.T) {
	strategies := DefaultStrategies()

	tests := []struct {
		name     string
		dataType string
		data     string
		want     float64
		found    bool
	}{
		{"explicit value field wins", "temperature", `{"temperature":99,"value":21.5}`, 21.5, true},
		{"type-named field second", "temperature", `{"unit":"C","temperature":18}`, 18, true},
		{"first numeric field third", "temperature", `{"unit":"C","reading":12,"other":34}`, 12, true},
		{"first numeric respects field order", "temperature", `{"b":2,"a":1}`, 2, true},
		{"scalar data is its own sample", "temperature", `21.5`, 21.5, true},
		{"integer scalar", "temperature", `20`, 20, true},
		{"numeric string field", "temperature", `{"value":"19.5"}`, 19.5, true},
		{"no numeric content", "status", `{"state":"ok"}`, 0, false},
		{"plain text", "status", `running`, 0, false},
		{"empty data", "status", ``, 0, false},
		{"malformed json falls through", "temperature", `{"value":`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractValue(extractRecord(tt.dataType, tt.data), strategies)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, "explicit:value", ByExplicitField{Field: "value"}.Name())
	assert.Equal(t, "type-named", ByTypeNamedField{}.Name())
	assert.Equal(t, "first-numeric", FirstNumericField{}.Name())
}
