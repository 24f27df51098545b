package stats

import "math"

const (
	// histogramWindow is the trailing window covered by a sparkline, in seconds
	histogramWindow int64 = 24 * 3600
	// histogramMargin is the number of columns reserved for sparkline borders
	histogramMargin = 2
)

// Sample is one event inside the histogram window. Amount is in millisatoshi
// and is ignored by the count variant.
type Sample struct {
	Timestamp int64
	Amount    int64
}

// BinCounts bins samples from the trailing day into a percentage-normalized
// series of width-2 columns, counting one per event. It returns the series
// and the raw maximum bucket value; an empty window yields a nil series and
// a maximum of 0.
func BinCounts(samples []Sample, now int64, width int) ([]uint64, uint64) {
	return bin(samples, now, width, func(Sample) uint64 { return 1 })
}

// BinVolumes bins samples like BinCounts but weighs each event by its amount
func BinVolumes(samples []Sample, now int64, width int) ([]uint64, uint64) {
	return bin(samples, now, width, func(s Sample) uint64 { return uint64(s.Amount) })
}

func bin(samples []Sample, now int64, width int, weight func(Sample) uint64) ([]uint64, uint64) {
	n := int64(width) - histogramMargin
	if n <= 0 {
		return nil, 0
	}

	t1 := now
	t0 := t1 - histogramWindow

	buckets := make([]uint64, n+1)
	for _, s := range samples {
		if s.Timestamp <= t0 {
			continue
		}
		i := int64(float64(s.Timestamp-t0) / float64(t1-t0) * float64(n))
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		buckets[i] += weight(s)
	}

	var max uint64
	for _, b := range buckets {
		if b > max {
			max = b
		}
	}
	if max == 0 {
		return nil, 0
	}

	line := make([]uint64, len(buckets))
	for i, b := range buckets {
		line[i] = uint64(math.Round(100 * float64(b) / float64(max)))
	}

	return line, max
}
