package distribution

import "math"

// scale is the generated percentile histogram scale: 1, 2, 3, then for every
// even power of four a run of thirds up to the next power, capped by MaxInt64.
var scale = generateScale()

func generateScale() []int64 {
	buckets := []int64{1, 2, 3}

	for exp := 2; exp < 64; exp += 2 {
		current := int64(1) << exp
		delta := current / 3
		next := (current << 2) - delta
		// The top powers wrap around and contribute nothing.
		for current > 0 && current < next {
			buckets = append(buckets, current)
			current += delta
		}
	}

	return append(buckets, math.MaxInt64)
}
