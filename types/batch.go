package types

import (
	"fmt"

	"github.com/Omecx/YieldSyncx/common"
)

// Batch binds a contiguous range of on-chain record indices to a Merkle root.
// Immutable once created; the root is marked known on chain so later proof
// verifications can reference it.
type Batch struct {
	ID          uint64      `json:"id"`
	FromIndex   uint64      `json:"fromIndex"`
	ToIndex     uint64      `json:"toIndex"`
	MerkleRoot  common.Hash `json:"merkleRoot"`
	Timestamp   int64       `json:"timestamp"` // milliseconds since Unix epoch
	Description string      `json:"description"`
	Signature   []byte      `json:"signature,omitempty"` // operator anchor signature
}

// RecordCount returns the number of record indices the batch covers.
func (b *Batch) RecordCount() uint64 {
	if b.ToIndex < b.FromIndex {
		return 0
	}
	return b.ToIndex - b.FromIndex + 1
}

func (b *Batch) String() string {
	return fmt.Sprintf("batch %d [%d..%d] root=%s", b.ID, b.FromIndex, b.ToIndex, common.Str(b.MerkleRoot))
}
