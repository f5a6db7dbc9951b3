package merkle

import (
	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/Omecx/YieldSyncx/yserrors"
	"github.com/holiman/uint256"
)

// LeafHash computes the Keccak-256 digest of a canonical record's tightly
// packed 5-tuple: deviceId bytes, timestamp as a 256-bit unsigned big-endian
// word, data bytes, dataType bytes, location bytes. The packing byte-exactly
// matches the contract-side record hash, so a leaf computed here can be
// compared against a chain-derived hash during verification.
//
// Timestamps are canonical milliseconds since the Unix epoch. A negative
// timestamp is a caller contract violation.
func LeafHash(record types.SensorRecord) (common.Hash, error) {
	if record.Timestamp < 0 {
		return common.Hash{}, yserrors.ErrMInvalidInput
	}
	word := uint256.NewInt(uint64(record.Timestamp)).Bytes32()
	return common.Keccak256Concat(
		[]byte(record.DeviceID),
		word[:],
		[]byte(record.Data),
		[]byte(record.DataType),
		[]byte(record.Location),
	), nil
}

// LeafHashes maps LeafHash over a record list, preserving order. Leaves are
// ordered by input order; the caller controls ordering.
func LeafHashes(records []types.SensorRecord) ([]common.Hash, error) {
	leaves := make([]common.Hash, len(records))
	for i, record := range records {
		leaf, err := LeafHash(record)
		if err != nil {
			return nil, err
		}
		leaves[i] = leaf
	}
	return leaves, nil
}
