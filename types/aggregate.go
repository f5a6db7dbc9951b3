package types

import (
	"fmt"

	"github.com/Omecx/YieldSyncx/common"
)

// GroupKey identifies an aggregation group by exact (deviceId, dataType) pair.
type GroupKey struct {
	DeviceID string `json:"deviceId"`
	DataType string `json:"dataType"`
}

func (k GroupKey) String() string {
	return k.DeviceID + "/" + k.DataType
}

// Aggregate is the per-group statistical and cryptographic summary. Derived
// and recomputable from the input record set; not independently mutable.
// Statistics cover the extracted numeric samples only; RecordCount always
// reflects the true number of records in the group.
type Aggregate struct {
	DeviceID          string      `json:"deviceId"`
	DataType          string      `json:"dataType"`
	StartTimestamp    int64       `json:"startTimestamp"`
	EndTimestamp      int64       `json:"endTimestamp"`
	RecordCount       int         `json:"recordCount"`
	Min               float64     `json:"min"`
	Max               float64     `json:"max"`
	Average           float64     `json:"average"`
	MedianValue       float64     `json:"medianValue"`
	StandardDeviation float64     `json:"standardDeviation"`
	AnomalyCount      int         `json:"anomalyCount"`
	MerkleRoot        common.Hash `json:"merkleRoot"`
}

func (a *Aggregate) Key() GroupKey {
	return GroupKey{DeviceID: a.DeviceID, DataType: a.DataType}
}

func (a *Aggregate) String() string {
	return fmt.Sprintf("%s/%s n=%d avg=%.4f anomalies=%d root=%s",
		a.DeviceID, a.DataType, a.RecordCount, a.Average, a.AnomalyCount, common.Str(a.MerkleRoot))
}
