package chain

import (
	"bytes"
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/merkle"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/Omecx/YieldSyncx/yserrors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Ledger is an in-process mirror of the anchoring contract: an append-only
// record log with per-record hashes, a known-root registry, and a proof
// verifier using the contract's fixed pairwise primitive. It deliberately
// reimplements the hashing and folding rather than calling the merkle
// package, so tests can demonstrate that the off-chain scheme is
// bit-compatible with an independent implementation.
//
// Safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	records    []types.SensorRecord
	hashes     []common.Hash
	batches    []*types.Batch
	knownRoots map[common.Hash]uint64 // root -> batch id

	operatorKey *ecdsa.PublicKey // nil disables anchor signature checks
	now         func() int64
}

var _ Client = (*Ledger)(nil)

// NewLedger creates an empty ledger. operatorKey may be nil, in which case
// batch anchors are accepted unsigned.
func NewLedger(operatorKey *ecdsa.PublicKey) *Ledger {
	return &Ledger{
		knownRoots:  make(map[common.Hash]uint64),
		operatorKey: operatorKey,
		now:         func() int64 { return time.Now().UnixMilli() },
	}
}

// recordHash is the contract-side record hash: keccak256 of the tightly
// packed tuple. Kept independent of merkle.LeafHash on purpose; the two must
// agree byte for byte.
func recordHash(deviceID string, timestamp int64, data, dataType, location string) common.Hash {
	word := uint256.NewInt(uint64(timestamp)).Bytes32()
	return common.Keccak256Concat(
		[]byte(deviceID),
		word[:],
		[]byte(data),
		[]byte(dataType),
		[]byte(location),
	)
}

// pairHash is the contract-side pairwise primitive: sort ascending, then
// keccak256 of the concatenation.
func pairHash(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.Keccak256Concat(a.Bytes(), b.Bytes())
}

func (l *Ledger) RecordData(deviceID string, timestamp int64, data, dataType, location string) (uint64, error) {
	if timestamp < 0 {
		return 0, yserrors.ErrMInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	index := uint64(len(l.records))
	l.records = append(l.records, types.SensorRecord{
		DeviceID:  deviceID,
		Timestamp: timestamp,
		Data:      data,
		DataType:  dataType,
		Location:  location,
	})
	l.hashes = append(l.hashes, recordHash(deviceID, timestamp, data, dataType, location))

	log.Trace(log.AnchorMonitoring, "record appended", "index", index, "device", deviceID)
	return index, nil
}

func (l *Ledger) CreateBatch(fromIndex, toIndex uint64, root common.Hash, description string, signature []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fromIndex > toIndex || toIndex >= uint64(len(l.records)) {
		return 0, yserrors.ErrCBadRange
	}
	if l.operatorKey != nil {
		digest := common.AnchorDigest(root, fromIndex, toIndex)
		if err := common.VerifyAnchorSignature(l.operatorKey, digest, signature); err != nil {
			return 0, yserrors.ErrCBadSignature
		}
	}

	id := uint64(len(l.batches))
	batch := &types.Batch{
		ID:          id,
		FromIndex:   fromIndex,
		ToIndex:     toIndex,
		MerkleRoot:  root,
		Timestamp:   l.now(),
		Description: description,
		Signature:   signature,
	}
	l.batches = append(l.batches, batch)
	l.knownRoots[root] = id

	log.Info(log.AnchorMonitoring, "batch anchored", "batch", batch.String())
	return id, nil
}

func (l *Ledger) VerifyRecord(recordIndex uint64, root common.Hash, proof merkle.Proof) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if recordIndex >= uint64(len(l.hashes)) {
		return false, yserrors.ErrCUnknownRecord
	}
	if _, known := l.knownRoots[root]; !known {
		return false, yserrors.ErrCUnknownRoot
	}

	acc := l.hashes[recordIndex]
	for _, sibling := range proof {
		acc = pairHash(acc, sibling)
	}
	return acc == root, nil
}

func (l *Ledger) GetRecord(index uint64) (types.SensorRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index >= uint64(len(l.records)) {
		return types.SensorRecord{}, yserrors.ErrCUnknownRecord
	}
	return l.records[index], nil
}

func (l *Ledger) GetBatch(id uint64) (*types.Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id >= uint64(len(l.batches)) {
		return nil, yserrors.ErrCUnknownBatch
	}
	return l.batches[id], nil
}

func (l *Ledger) RecordCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.records))
}

func (l *Ledger) IsKnownRoot(root common.Hash) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, known := l.knownRoots[root]
	return known
}

// OperatorFromHex derives the operator public key from a hex private key.
// Used when wiring a ledger that must check anchor signatures.
func OperatorFromHex(privateKeyHex string) (*ecdsa.PublicKey, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, err
	}
	return &privateKey.PublicKey, nil
}
