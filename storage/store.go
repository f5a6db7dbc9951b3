package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/Omecx/YieldSyncx/yserrors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key prefixes. Record keys order by device then timestamp so device/time-range
// scans are a single iterator pass.
const (
	prefixRecord    = "r/"
	prefixBatch     = "b/"
	prefixAggregate = "a/"
)

// Store wraps LevelDB for durable persistence of canonical records, batches,
// and aggregates. Values round-trip losslessly: leaf hashes depend on exact
// field content, so records are stored as their canonical JSON and decoded
// back without transformation.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

// NewStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewStore(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewMemoryStore creates an in-memory Store for testing.
func NewMemoryStore() (*Store, error) {
	return NewStore("")
}

// recordKey ends in a content digest so two distinct readings sharing a
// device, timestamp, and dataType never overwrite each other.
func recordKey(record types.SensorRecord) []byte {
	digest := common.Keccak256Concat([]byte(record.DataType), []byte(record.Data), []byte(record.Location))
	key := make([]byte, 0, len(prefixRecord)+len(record.DeviceID)+1+8+8)
	key = append(key, prefixRecord...)
	key = append(key, record.DeviceID...)
	key = append(key, 0)
	key = append(key, common.Uint64ToBytes(uint64(record.Timestamp))...)
	key = append(key, digest.Bytes()[:8]...)
	return key
}

func batchKey(id uint64) []byte {
	return append([]byte(prefixBatch), common.Uint64ToBytes(id)...)
}

func aggregateKey(key types.GroupKey, endTimestamp int64) []byte {
	k := append([]byte(prefixAggregate), key.DeviceID...)
	k = append(k, 0)
	k = append(k, key.DataType...)
	k = append(k, 0)
	k = append(k, common.Uint64ToBytes(uint64(endTimestamp))...)
	return k
}

// PutRecord persists a canonical record under its device/timestamp/dataType key.
func (s *Store) PutRecord(record types.SensorRecord) error {
	if record.Timestamp < 0 {
		return yserrors.ErrMInvalidInput
	}
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Put(recordKey(record), value, nil)
}

// RecordsByDevice returns the device's records with fromTimestamp <= t <=
// toTimestamp, in ascending timestamp order.
func (s *Store) RecordsByDevice(deviceID string, fromTimestamp, toTimestamp int64) ([]types.SensorRecord, error) {
	if fromTimestamp < 0 {
		fromTimestamp = 0
	}
	start := make([]byte, 0, len(prefixRecord)+len(deviceID)+1+8)
	start = append(start, prefixRecord...)
	start = append(start, deviceID...)
	start = append(start, 0)
	limit := append([]byte{}, start...)
	start = append(start, common.Uint64ToBytes(uint64(fromTimestamp))...)
	limit = append(limit, common.Uint64ToBytes(uint64(toTimestamp)+1)...)

	iter := s.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
	defer iter.Release()

	var records []types.SensorRecord
	for iter.Next() {
		var record types.SensorRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, yserrors.ErrPBadEncoding
		}
		records = append(records, record)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("RecordsByDevice %s: %w", deviceID, err)
	}
	return records, nil
}

// PutBatch persists an anchored batch by id.
func (s *Store) PutBatch(batch *types.Batch) error {
	value, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	if err := s.db.Put(batchKey(batch.ID), value, nil); err != nil {
		return err
	}
	log.Debug(log.StorageMonitoring, "batch persisted", "batch", batch.String())
	return nil
}

// GetBatch retrieves a batch by id.
func (s *Store) GetBatch(id uint64) (*types.Batch, error) {
	value, err := s.db.Get(batchKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, yserrors.ErrPNotFound
	}
	if err != nil {
		return nil, err
	}
	var batch types.Batch
	if err := json.Unmarshal(value, &batch); err != nil {
		return nil, yserrors.ErrPBadEncoding
	}
	return &batch, nil
}

// Batches returns all persisted batches in id order.
func (s *Store) Batches() ([]*types.Batch, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixBatch)), nil)
	defer iter.Release()

	var batches []*types.Batch
	for iter.Next() {
		var batch types.Batch
		if err := json.Unmarshal(iter.Value(), &batch); err != nil {
			return nil, yserrors.ErrPBadEncoding
		}
		batches = append(batches, &batch)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("Batches: %w", err)
	}
	return batches, nil
}

// PutAggregate persists an aggregate keyed by group and window end.
func (s *Store) PutAggregate(agg *types.Aggregate) error {
	value, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return s.db.Put(aggregateKey(agg.Key(), agg.EndTimestamp), value, nil)
}

// AggregatesByGroup returns the stored aggregates for a group in ascending
// window-end order.
func (s *Store) AggregatesByGroup(key types.GroupKey) ([]*types.Aggregate, error) {
	prefix := append([]byte(prefixAggregate), key.DeviceID...)
	prefix = append(prefix, 0)
	prefix = append(prefix, key.DataType...)
	prefix = append(prefix, 0)

	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var aggregates []*types.Aggregate
	for iter.Next() {
		var agg types.Aggregate
		if err := json.Unmarshal(iter.Value(), &agg); err != nil {
			return nil, yserrors.ErrPBadEncoding
		}
		aggregates = append(aggregates, &agg)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("AggregatesByGroup %s: %w", key.String(), err)
	}
	return aggregates, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
