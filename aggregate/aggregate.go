package aggregate

import (
	"math"
	"sort"

	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/merkle"
	"github.com/Omecx/YieldSyncx/types"
)

// AnomalyDetector is the external anomaly-detection collaborator as the
// aggregator sees it: only the count of flagged records per group is needed.
type AnomalyDetector interface {
	FlaggedCount(records []types.SensorRecord) int
}

// Aggregate groups canonical records by exact (deviceId, dataType), computes
// summary statistics over the extracted numeric samples, counts anomalies via
// the detector, and attaches a group-level Merkle root built over the group's
// records in timestamp-sorted order.
//
// Groups with zero numeric samples report zero statistics while RecordCount
// still reflects the true group size. detector may be nil, in which case
// anomaly counts are zero. The only error condition is an invalid record
// timestamp surfacing from leaf hashing.
func Aggregate(records []types.SensorRecord, detector AnomalyDetector) (map[types.GroupKey]*types.Aggregate, error) {
	return AggregateWith(records, detector, DefaultStrategies())
}

// AggregateWith is Aggregate with an explicit extraction strategy order.
func AggregateWith(records []types.SensorRecord, detector AnomalyDetector, strategies []ExtractionStrategy) (map[types.GroupKey]*types.Aggregate, error) {
	groups := make(map[types.GroupKey][]types.SensorRecord)
	var order []types.GroupKey
	for _, record := range records {
		key := types.GroupKey{DeviceID: record.DeviceID, DataType: record.DataType}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}

	result := make(map[types.GroupKey]*types.Aggregate, len(groups))
	for _, key := range order {
		group := groups[key]

		// Stable: ties keep original relative order.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp < group[j].Timestamp
		})

		samples := make([]float64, 0, len(group))
		for _, record := range group {
			if v, ok := ExtractValue(record, strategies); ok {
				samples = append(samples, v)
			}
		}

		leaves, err := merkle.LeafHashes(group)
		if err != nil {
			return nil, err
		}
		tree, err := merkle.BuildTree(leaves)
		if err != nil {
			return nil, err
		}

		agg := &types.Aggregate{
			DeviceID:       key.DeviceID,
			DataType:       key.DataType,
			StartTimestamp: group[0].Timestamp,
			EndTimestamp:   group[len(group)-1].Timestamp,
			RecordCount:    len(group),
			MerkleRoot:     tree.Root(),
		}
		fillStatistics(agg, samples)
		if detector != nil {
			agg.AnomalyCount = detector.FlaggedCount(group)
		}

		log.Trace(log.SensorMonitoring, "aggregated group",
			"group", key.String(), "records", agg.RecordCount, "samples", len(samples))
		result[key] = agg
	}
	return result, nil
}

// fillStatistics computes min/max/mean/median and population standard
// deviation (divisor N, not N-1) over the numeric samples. Zero samples leave
// all statistics at zero rather than NaN.
func fillStatistics(agg *types.Aggregate, samples []float64) {
	if len(samples) == 0 {
		return
	}

	min, max, sum := samples[0], samples[0], 0.0
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(samples))

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	var variance float64
	for _, v := range samples {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(samples))

	agg.Min = min
	agg.Max = max
	agg.Average = mean
	agg.MedianValue = median
	agg.StandardDeviation = math.Sqrt(variance)
}
