package chain

import (
	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/merkle"
	"github.com/Omecx/YieldSyncx/types"
)

// Client is the blockchain-interaction boundary. The batching core never
// talks to a chain directly; it hands roots and proofs to a Client and reads
// back assigned indices, batch identifiers, and inclusion results.
//
// Timestamps cross this boundary as canonical milliseconds since the Unix
// epoch and are stored verbatim as uint256 words, so the hashing path never
// converts units. The producer supplies the timestamp; letting the chain
// assign its own seconds-based time would silently break inclusion proofs
// computed off chain.
type Client interface {
	// RecordData appends a sensor record and returns its assigned index.
	RecordData(deviceID string, timestamp int64, data, dataType, location string) (uint64, error)

	// CreateBatch anchors a root over the inclusive record index range and
	// returns the batch identifier. The signature is the operator's anchor
	// signature over (root, fromIndex, toIndex).
	CreateBatch(fromIndex, toIndex uint64, root common.Hash, description string, signature []byte) (uint64, error)

	// VerifyRecord checks a record's inclusion proof against an anchored
	// root. A false result is a legitimate business outcome; an error means
	// the root was never anchored or the index is unknown.
	VerifyRecord(recordIndex uint64, root common.Hash, proof merkle.Proof) (bool, error)

	// GetRecord returns the record stored at the given index.
	GetRecord(index uint64) (types.SensorRecord, error)

	// GetBatch returns an anchored batch by identifier.
	GetBatch(id uint64) (*types.Batch, error)

	// RecordCount returns the number of records in the ledger.
	RecordCount() uint64

	// IsKnownRoot reports whether a root has been anchored.
	IsKnownRoot(root common.Hash) bool
}
