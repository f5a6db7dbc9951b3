package anomaly

import (
	"fmt"
	"math"

	"github.com/Omecx/YieldSyncx/aggregate"
	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/types"
)

// Severity tiers for anomaly findings.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ReasonCode is a typed anomaly reason.
type ReasonCode string

const (
	ReasonBelowMinimum ReasonCode = "value below configured minimum"
	ReasonAboveMaximum ReasonCode = "value above configured maximum"
	ReasonRateExceeded ReasonCode = "rate of change exceeds alert threshold"
)

// Finding is one anomaly observation on a single reading.
type Finding struct {
	Severity Severity   `json:"severity"`
	Reason   ReasonCode `json:"reason"`
	Message  string     `json:"message"`
	Value    float64    `json:"value"`
	Limit    float64    `json:"limit"`
}

// Report carries the findings for one flagged reading. Readings with no
// findings produce no report.
type Report struct {
	Record   types.SensorRecord `json:"record"`
	Findings []Finding          `json:"findings"`
}

// Threshold is the per-dataType detection configuration.
type Threshold struct {
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	HasMin            bool    `json:"hasMin"`
	HasMax            bool    `json:"hasMax"`
	MaxDeltaPerSecond float64 `json:"maxDeltaPerSecond"` // 0 disables rate detection
}

// Detector flags readings whose values fall outside configured thresholds or
// change faster than the configured rate. Rate detection uses an explicitly
// owned, bounded per-series history with oldest-first eviction; there is no
// ambient module state. Not safe for concurrent use; callers own one detector
// per pipeline.
type Detector struct {
	thresholds map[string]Threshold
	history    map[types.GroupKey]*ring
	maxHistory int
	strategies []aggregate.ExtractionStrategy
}

// NewDetector builds a detector with the given per-dataType thresholds and a
// bounded history of maxHistory samples per (device, dataType) series.
func NewDetector(thresholds map[string]Threshold, maxHistory int) *Detector {
	if maxHistory <= 0 {
		maxHistory = 16
	}
	return &Detector{
		thresholds: thresholds,
		history:    make(map[types.GroupKey]*ring),
		maxHistory: maxHistory,
		strategies: aggregate.DefaultStrategies(),
	}
}

// Detect inspects the readings in order and returns one report per flagged
// reading, feeding each sample into the live per-series history. Readings
// without an extractable numeric value are skipped; garbage data is not an
// anomaly, it simply contributes nothing.
func (d *Detector) Detect(records []types.SensorRecord) []Report {
	return d.detect(records, nil)
}

// FlaggedCount reports how many of the given readings have at least one
// finding. This is the aggregate.AnomalyDetector surface. Rate checks run
// against a transient history scoped to this call, so counting a historical
// window never perturbs the live series state.
func (d *Detector) FlaggedCount(records []types.SensorRecord) int {
	return len(d.detect(records, make(map[types.GroupKey]sample)))
}

// detect pushes samples into the live series history when scratch is nil, or
// into scratch otherwise, leaving the detector untouched.
func (d *Detector) detect(records []types.SensorRecord, scratch map[types.GroupKey]sample) []Report {
	var reports []Report
	for _, record := range records {
		value, ok := aggregate.ExtractValue(record, d.strategies)
		if !ok {
			continue
		}
		key := types.GroupKey{DeviceID: record.DeviceID, DataType: record.DataType}
		prev, havePrev := d.previous(key, scratch)

		var findings []Finding
		if th, configured := d.thresholds[record.DataType]; configured {
			if th.HasMin && value < th.Min {
				findings = append(findings, Finding{
					Severity: SeverityError,
					Reason:   ReasonBelowMinimum,
					Message:  fmt.Sprintf("%s reading %.4f below minimum %.4f", record.DataType, value, th.Min),
					Value:    value,
					Limit:    th.Min,
				})
			}
			if th.HasMax && value > th.Max {
				findings = append(findings, Finding{
					Severity: SeverityError,
					Reason:   ReasonAboveMaximum,
					Message:  fmt.Sprintf("%s reading %.4f above maximum %.4f", record.DataType, value, th.Max),
					Value:    value,
					Limit:    th.Max,
				})
			}
			if f, flagged := checkRate(record, value, th, prev, havePrev); flagged {
				findings = append(findings, f)
			}
		}

		if scratch != nil {
			scratch[key] = sample{timestamp: record.Timestamp, value: value}
		} else {
			d.series(key).push(record.Timestamp, value)
		}

		if len(findings) > 0 {
			log.Debug(log.AnomalyMonitoring, "reading flagged",
				"record", record.String(), "findings", len(findings))
			reports = append(reports, Report{Record: record, Findings: findings})
		}
	}
	return reports
}

func (d *Detector) previous(key types.GroupKey, scratch map[types.GroupKey]sample) (sample, bool) {
	if scratch != nil {
		s, ok := scratch[key]
		return s, ok
	}
	if r, ok := d.history[key]; ok {
		return r.latest()
	}
	return sample{}, false
}

func checkRate(record types.SensorRecord, value float64, th Threshold, prev sample, havePrev bool) (Finding, bool) {
	if th.MaxDeltaPerSecond <= 0 || !havePrev || record.Timestamp <= prev.timestamp {
		return Finding{}, false
	}

	elapsed := float64(record.Timestamp-prev.timestamp) / 1000.0
	rate := math.Abs(value-prev.value) / elapsed
	if rate <= th.MaxDeltaPerSecond {
		return Finding{}, false
	}
	return Finding{
		Severity: SeverityWarning,
		Reason:   ReasonRateExceeded,
		Message:  fmt.Sprintf("%s changing at %.4f/s, limit %.4f/s", record.DataType, rate, th.MaxDeltaPerSecond),
		Value:    rate,
		Limit:    th.MaxDeltaPerSecond,
	}, true
}

func (d *Detector) series(key types.GroupKey) *ring {
	r, ok := d.history[key]
	if !ok {
		r = newRing(d.maxHistory)
		d.history[key] = r
	}
	return r
}
