package node

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/Omecx/YieldSyncx/aggregate"
	"github.com/Omecx/YieldSyncx/anomaly"
	"github.com/Omecx/YieldSyncx/chain"
	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/merkle"
	"github.com/Omecx/YieldSyncx/storage"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/Omecx/YieldSyncx/yserrors"
)

// Node wires the pipeline together: readings come in, get canonicalized and
// recorded on chain, batches of unanchored records get merkleized and
// anchored, and verification replays the whole path independently.
type Node struct {
	mu sync.Mutex

	store    *storage.Store
	chain    chain.Client
	detector *anomaly.Detector
	hub      *Hub

	operatorKey string // hex private key; empty disables anchor signing
	anchored    uint64 // next chain index with no batch over it
}

// NewNode opens the node's store and assembles the pipeline around the given
// chain client. thresholds configures anomaly detection per dataType; an
// empty map disables it without disabling the detector.
func NewNode(cfg *types.CommandConfig, client chain.Client, thresholds map[string]anomaly.Threshold) (*Node, error) {
	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	n := &Node{
		store:       store,
		chain:       client,
		detector:    anomaly.NewDetector(thresholds, 0),
		hub:         NewHub(),
		operatorKey: cfg.OperatorKey,
	}
	// Resume anchoring after the last persisted batch.
	batches, err := store.Batches()
	if err != nil {
		store.Close()
		return nil, err
	}
	for _, b := range batches {
		if b.ToIndex+1 > n.anchored {
			n.anchored = b.ToIndex + 1
		}
	}
	log.Info(log.SensorMonitoring, "node ready",
		"name", cfg.NodeName, "datadir", cfg.DataDir, "anchored", n.anchored)
	return n, nil
}

// Hub exposes the websocket hub for HTTP wiring.
func (n *Node) Hub() *Hub {
	return n.hub
}

// SubmitReading canonicalizes a raw reading, records it on chain, persists
// the canonical record, and runs anomaly detection on it. Returns the
// chain-assigned record index.
func (n *Node) SubmitReading(reading types.SensorReading) (uint64, error) {
	record := types.Canonicalize(reading)

	index, err := n.chain.RecordData(record.DeviceID, record.Timestamp, record.Data, record.DataType, record.Location)
	if err != nil {
		return 0, err
	}
	if err := n.store.PutRecord(record); err != nil {
		return 0, err
	}

	n.mu.Lock()
	reports := n.detector.Detect([]types.SensorRecord{record})
	n.mu.Unlock()
	if len(reports) > 0 {
		n.hub.BroadcastAnomalies(reports)
	}

	log.Debug(log.SensorMonitoring, "reading submitted",
		"record", record.String(), "index", index, "anomalies", len(reports))
	return index, nil
}

// AnchorPending builds a Merkle tree over every record not yet covered by a
// batch, self-checks each inclusion proof against the root, and anchors the
// root on chain. Returns the anchored batch and the per-record proofs in
// record order.
func (n *Node) AnchorPending(description string) (*types.Batch, []merkle.Proof, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	from := n.anchored
	count := n.chain.RecordCount()
	if from >= count {
		return nil, nil, yserrors.ErrMEmptyInput
	}

	records := make([]types.SensorRecord, 0, count-from)
	for i := from; i < count; i++ {
		record, err := n.chain.GetRecord(i)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	leaves, err := merkle.LeafHashes(records)
	if err != nil {
		return nil, nil, err
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, nil, err
	}
	proofs := tree.AllProofs()
	// Every proof must fold back to the root before anything goes on chain.
	for i, proof := range proofs {
		if !merkle.VerifyProof(leaves[i], proof, tree.Root()) {
			return nil, nil, fmt.Errorf("proof %d does not verify against fresh root: %w", i, yserrors.ErrMProofMismatch)
		}
	}

	to := count - 1
	var signature []byte
	if n.operatorKey != "" {
		_, signature, err = common.SignAnchor(n.operatorKey, tree.Root(), from, to)
		if err != nil {
			return nil, nil, err
		}
	}

	id, err := n.chain.CreateBatch(from, to, tree.Root(), description, signature)
	if err != nil {
		return nil, nil, err
	}
	batch, err := n.chain.GetBatch(id)
	if err != nil {
		return nil, nil, err
	}
	if err := n.store.PutBatch(batch); err != nil {
		return nil, nil, err
	}
	n.anchored = count
	n.hub.BroadcastBatch(batch)

	log.Info(log.AnchorMonitoring, "anchored pending records",
		"batch", batch.String(), "records", len(records))
	return batch, proofs, nil
}

// VerifyRecord checks a record's inclusion in an anchored batch, twice: once
// off chain against the batch root with a freshly rebuilt tree, and once
// through the chain's own verifier. Both have to agree for a true result.
func (n *Node) VerifyRecord(recordIndex, batchID uint64) (bool, error) {
	batch, err := n.chain.GetBatch(batchID)
	if err != nil {
		return false, err
	}
	if recordIndex < batch.FromIndex || recordIndex > batch.ToIndex {
		return false, yserrors.ErrCBadRange
	}

	records := make([]types.SensorRecord, 0, batch.RecordCount())
	for i := batch.FromIndex; i <= batch.ToIndex; i++ {
		record, err := n.chain.GetRecord(i)
		if err != nil {
			return false, err
		}
		records = append(records, record)
	}
	leaves, err := merkle.LeafHashes(records)
	if err != nil {
		return false, err
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return false, err
	}

	offset := int(recordIndex - batch.FromIndex)
	proof, err := tree.Proof(offset)
	if err != nil {
		return false, err
	}
	offline := merkle.VerifyProof(leaves[offset], proof, batch.MerkleRoot)

	onChain, err := n.chain.VerifyRecord(recordIndex, batch.MerkleRoot, proof)
	if err != nil {
		return false, err
	}
	if offline != onChain {
		log.Error(log.AnchorMonitoring, "verification contexts disagree",
			"index", recordIndex, "offline", offline, "onchain", onChain)
	}
	return offline && onChain, nil
}

// AggregateRange aggregates a device's stored records over an inclusive
// timestamp window, persists the per-group summaries, and returns them sorted
// by group key.
func (n *Node) AggregateRange(deviceID string, fromTimestamp, toTimestamp int64) ([]*types.Aggregate, error) {
	records, err := n.store.RecordsByDevice(deviceID, fromTimestamp, toTimestamp)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, yserrors.ErrMEmptyInput
	}

	n.mu.Lock()
	grouped, err := aggregate.Aggregate(records, n.detector)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := make([]*types.Aggregate, 0, len(grouped))
	for _, agg := range grouped {
		if err := n.store.PutAggregate(agg); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key().String() < result[j].Key().String()
	})

	log.Debug(log.SensorMonitoring, "aggregated range",
		"device", deviceID, "records", len(records), "groups", len(result))
	return result, nil
}

// ListenAndServe runs the node's HTTP surface: websocket subscriptions plus a
// health endpoint. Blocks until the server exits.
func (n *Node) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.hub.ServeWs)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok records=%d\n", n.chain.RecordCount())
	})
	log.Info(log.WebMonitoring, "http server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (n *Node) Close() error {
	return n.store.Close()
}
