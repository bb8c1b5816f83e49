package distribution

// CountAtBucket is the cumulative number of observations at or below UpperBound.
type CountAtBucket struct {
	UpperBound float64
	Count      float64
}

// ValueAtPercentile is the estimated value at Percentile, a fraction in [0, 1].
type ValueAtPercentile struct {
	Percentile float64
	Value      float64
}

// Snapshot is a point-in-time view of a histogram. Count and Total never
// decrease; Max and Percentiles cover only the current decay window.
type Snapshot struct {
	Count       uint64
	Total       float64
	Max         float64
	Buckets     []CountAtBucket
	Percentiles []ValueAtPercentile
}

// Mean returns Total divided by Count, or zero for an empty snapshot.
func (s Snapshot) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Total / float64(s.Count)
}
