package aggregate

import (
	"testing"

	"github.com/Omecx/YieldSyncx/merkle"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDetector struct {
	flagged int
}

func (f fixedDetector) FlaggedCount(records []types.SensorRecord) int {
	return f.flagged
}

func record(device, dataType, data string, ts int64) types.SensorRecord {
	return types.SensorRecord{
		DeviceID:  device,
		Timestamp: ts,
		Data:      data,
		DataType:  dataType,
		Location:  "field-1",
	}
}

// Three temperature readings 20, 22, 19: one group, count 3, min 19, max 22,
// average 20.33, median 20.
func TestAggregateSingleGroup(t *testing.T) {
	records := []types.SensorRecord{
		record("device-001", "temperature", "20", 1000),
		record("device-001", "temperature", "22", 2000),
		record("device-001", "temperature", "19", 3000),
	}

	result, err := Aggregate(records, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)

	agg := result[types.GroupKey{DeviceID: "device-001", DataType: "temperature"}]
	require.NotNil(t, agg)
	assert.Equal(t, 3, agg.RecordCount)
	assert.Equal(t, 19.0, agg.Min)
	assert.Equal(t, 22.0, agg.Max)
	assert.InDelta(t, 20.33, agg.Average, 0.01)
	assert.Equal(t, 20.0, agg.MedianValue)
	assert.Equal(t, int64(1000), agg.StartTimestamp)
	assert.Equal(t, int64(3000), agg.EndTimestamp)
	assert.Equal(t, 0, agg.AnomalyCount)
}

func TestAggregateGroupsByDeviceAndType(t *testing.T) {
	records := []types.SensorRecord{
		record("device-001", "temperature", "20", 1000),
		record("device-001", "humidity", "55", 1000),
		record("device-002", "temperature", "21", 1000),
	}

	result, err := Aggregate(records, nil)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

// The group root must match a tree built over the group's records in
// timestamp-sorted order, not input order.
func TestAggregateGroupRoot(t *testing.T) {
	records := []types.SensorRecord{
		record("device-001", "temperature", "22", 2000),
		record("device-001", "temperature", "20", 1000),
		record("device-001", "temperature", "19", 3000),
	}

	result, err := Aggregate(records, nil)
	require.NoError(t, err)
	agg := result[types.GroupKey{DeviceID: "device-001", DataType: "temperature"}]
	require.NotNil(t, agg)

	sorted := []types.SensorRecord{records[1], records[0], records[2]}
	leaves, err := merkle.LeafHashes(sorted)
	require.NoError(t, err)
	tree, err := merkle.BuildTree(leaves)
	require.NoError(t, err)
	assert.Equal(t, tree.Root(), agg.MerkleRoot)
}

// A group with no extractable numbers reports zero statistics but the true
// record count.
func TestAggregateZeroSampleGroup(t *testing.T) {
	records := []types.SensorRecord{
		record("device-003", "status", "ok", 1000),
		record("device-003", "status", "degraded", 2000),
	}

	result, err := Aggregate(records, nil)
	require.NoError(t, err)
	agg := result[types.GroupKey{DeviceID: "device-003", DataType: "status"}]
	require.NotNil(t, agg)

	assert.Equal(t, 2, agg.RecordCount)
	assert.Zero(t, agg.Min)
	assert.Zero(t, agg.Max)
	assert.Zero(t, agg.Average)
	assert.Zero(t, agg.MedianValue)
	assert.Zero(t, agg.StandardDeviation)
}

func TestAggregateAnomalyCount(t *testing.T) {
	records := []types.SensorRecord{
		record("device-001", "temperature", "20", 1000),
		record("device-001", "temperature", "99", 2000),
	}

	result, err := Aggregate(records, fixedDetector{flagged: 1})
	require.NoError(t, err)
	agg := result[types.GroupKey{DeviceID: "device-001", DataType: "temperature"}]
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.AnomalyCount)
}

func TestAggregateStatistics(t *testing.T) {
	records := []types.SensorRecord{
		record("d", "t", "2", 1),
		record("d", "t", "4", 2),
		record("d", "t", "4", 3),
		record("d", "t", "4", 4),
		record("d", "t", "5", 5),
		record("d", "t", "5", 6),
		record("d", "t", "7", 7),
		record("d", "t", "9", 8),
	}

	result, err := Aggregate(records, nil)
	require.NoError(t, err)
	agg := result[types.GroupKey{DeviceID: "d", DataType: "t"}]
	require.NotNil(t, agg)

	assert.Equal(t, 5.0, agg.Average)
	assert.Equal(t, 4.5, agg.MedianValue, "even-count median is mean of the two central values")
	// Population standard deviation with divisor N.
	assert.InDelta(t, 2.0, agg.StandardDeviation, 1e-9)
}

func TestAggregateEmptyInput(t *testing.T) {
	result, err := Aggregate(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}
