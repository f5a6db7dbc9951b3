package merkle

import (
	"testing"

	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/Omecx/YieldSyncx/yserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func TestLeafHashPacking(t *testing.T) {
	record := types.SensorRecord{
		DeviceID:  "device-001",
		Timestamp: 1700000000000,
		Data:      `{"value":21.5}`,
		DataType:  "temperature",
		Location:  "field-7",
	}

	leaf, err := LeafHash(record)
	require.NoError(t, err)

	// Independently pack: deviceId ++ uint256(timestamp) ++ data ++ dataType ++ location.
	word := make([]byte, 32)
	copy(word[24:], common.Uint64ToBytes(uint64(record.Timestamp)))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(record.DeviceID))
	h.Write(word)
	h.Write([]byte(record.Data))
	h.Write([]byte(record.DataType))
	h.Write([]byte(record.Location))
	assert.Equal(t, common.BytesToHash(h.Sum(nil)), leaf)
}

func TestLeafHashNegativeTimestamp(t *testing.T) {
	_, err := LeafHash(types.SensorRecord{DeviceID: "d", Timestamp: -1})
	assert.ErrorIs(t, err, yserrors.ErrMInvalidInput)

	_, err = LeafHashes([]types.SensorRecord{{DeviceID: "d", Timestamp: 1}, {DeviceID: "d", Timestamp: -5}})
	assert.ErrorIs(t, err, yserrors.ErrMInvalidInput)
}

func TestLeafHashFieldSensitivity(t *testing.T) {
	base := types.SensorRecord{
		DeviceID:  "device-001",
		Timestamp: 1000,
		Data:      "20",
		DataType:  "temperature",
		Location:  "greenhouse-a",
	}
	baseLeaf, err := LeafHash(base)
	require.NoError(t, err)

	variants := []types.SensorRecord{
		{DeviceID: "device-002", Timestamp: 1000, Data: "20", DataType: "temperature", Location: "greenhouse-a"},
		{DeviceID: "device-001", Timestamp: 1001, Data: "20", DataType: "temperature", Location: "greenhouse-a"},
		{DeviceID: "device-001", Timestamp: 1000, Data: "21", DataType: "temperature", Location: "greenhouse-a"},
		{DeviceID: "device-001", Timestamp: 1000, Data: "20", DataType: "humidity", Location: "greenhouse-a"},
		{DeviceID: "device-001", Timestamp: 1000, Data: "20", DataType: "temperature", Location: "greenhouse-b"},
	}
	for i, v := range variants {
		leaf, err := LeafHash(v)
		require.NoError(t, err)
		assert.NotEqual(t, baseLeaf, leaf, "variant %d", i)
	}

	same, err := LeafHash(base)
	require.NoError(t, err)
	assert.Equal(t, baseLeaf, same, "equal records hash identically")
}
