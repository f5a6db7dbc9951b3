package anomaly

// sample is one historical observation of a series.
type sample struct {
	timestamp int64 // milliseconds since Unix epoch
	value     float64
}

// ring is a fixed-capacity sample buffer with oldest-first eviction.
type ring struct {
	samples []sample
	next    int
	count   int
}

func newRing(capacity int) *ring {
	return &ring{samples: make([]sample, capacity)}
}

func (r *ring) push(timestamp int64, value float64) {
	r.samples[r.next] = sample{timestamp: timestamp, value: value}
	r.next = (r.next + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
}

// latest returns the most recently pushed sample.
func (r *ring) latest() (sample, bool) {
	if r.count == 0 {
		return sample{}, false
	}
	idx := (r.next - 1 + len(r.samples)) % len(r.samples)
	return r.samples[idx], true
}

// len returns the number of stored samples.
func (r *ring) len() int {
	return r.count
}
