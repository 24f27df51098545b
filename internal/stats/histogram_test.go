package stats

import (
	"testing"

	"github.com/lnwatch/eclair-dashboard/internal/testutils"
)

func TestBinCountsBucketSum(t *testing.T) {
	now := int64(1_700_000_000)
	width := 40

	samples := []Sample{
		{Timestamp: now - 10, Amount: 1000},
		{Timestamp: now - 3600, Amount: 2000},
		{Timestamp: now - 12*3600, Amount: 500},
		{Timestamp: now - 23*3600, Amount: 700},
		// Outside the trailing day, must be discarded
		{Timestamp: now - 25*3600, Amount: 9000},
		{Timestamp: now - 24*3600, Amount: 9000},
	}

	line, max := BinCounts(samples, now, width)
	if line == nil {
		t.Fatal("Expected a non-empty histogram")
	}
	if max == 0 {
		t.Fatal("Expected a nonzero raw maximum")
	}

	// Four in-window events land in four distinct buckets for this spread,
	// so the raw maximum is 1 and each occupied bucket normalizes to 100.
	// The occupied-bucket count doubles as the in-window event count.
	testutils.AssertEqual(t, max, uint64(1))
	occupied := 0
	for _, v := range line {
		if v > 0 {
			testutils.AssertEqual(t, v, uint64(100))
			occupied++
		}
	}
	testutils.AssertEqual(t, occupied, 4)
}

func TestBinCountsNormalizationMax(t *testing.T) {
	now := int64(1_700_000_000)
	width := 12

	// Pile events into one slot so one bucket dominates
	samples := []Sample{
		{Timestamp: now - 5},
		{Timestamp: now - 6},
		{Timestamp: now - 7},
		{Timestamp: now - 8},
		{Timestamp: now - 20 * 3600},
	}

	line, max := BinCounts(samples, now, width)
	if line == nil {
		t.Fatal("Expected a non-empty histogram")
	}
	testutils.AssertEqual(t, max, uint64(4))

	var peak uint64
	for _, v := range line {
		if v > 100 {
			t.Errorf("Normalized bucket %d exceeds 100", v)
		}
		if v > peak {
			peak = v
		}
	}
	testutils.AssertEqual(t, peak, uint64(100))
}

func TestBinCountsEmptyWindow(t *testing.T) {
	now := int64(1_700_000_000)

	// Scenario: all events too old to count
	samples := []Sample{
		{Timestamp: now - 30 * 3600},
		{Timestamp: now - 48 * 3600},
	}

	line, max := BinCounts(samples, now, 80)
	if line != nil {
		t.Errorf("Expected an empty histogram, got %v", line)
	}
	testutils.AssertEqual(t, max, uint64(0))

	line, max = BinCounts(nil, now, 80)
	if line != nil {
		t.Errorf("Expected an empty histogram for no samples, got %v", line)
	}
	testutils.AssertEqual(t, max, uint64(0))
}

func TestBinCountsSlotCount(t *testing.T) {
	now := int64(1_700_000_000)
	width := 30

	line, _ := BinCounts([]Sample{{Timestamp: now - 1}}, now, width)
	// width-2 buckets plus the shared edge slot
	testutils.AssertEqual(t, len(line), width-1)
}

func TestBinCountsDegenerateWidth(t *testing.T) {
	now := int64(1_700_000_000)
	samples := []Sample{{Timestamp: now - 1}}

	for _, width := range []int{0, 1, 2, -5} {
		line, max := BinCounts(samples, now, width)
		if line != nil || max != 0 {
			t.Errorf("width %d: expected empty result, got %v max %d", width, line, max)
		}
	}
}

func TestBinVolumesWeighsByAmount(t *testing.T) {
	now := int64(1_700_000_000)
	width := 12

	samples := []Sample{
		{Timestamp: now - 5, Amount: 3000},
		{Timestamp: now - 6, Amount: 1000},
		{Timestamp: now - 22*3600, Amount: 2000},
	}

	line, max := BinVolumes(samples, now, width)
	if line == nil {
		t.Fatal("Expected a non-empty histogram")
	}
	// The two recent events share a bucket: 4000 msat total
	testutils.AssertEqual(t, max, uint64(4000))

	var peak uint64
	var halves int
	for _, v := range line {
		if v > peak {
			peak = v
		}
		if v == 50 {
			halves++
		}
	}
	testutils.AssertEqual(t, peak, uint64(100))
	// The lone older event is half the dominant bucket
	testutils.AssertEqual(t, halves, 1)
}

func TestBinCountsClampsFutureSamples(t *testing.T) {
	now := int64(1_700_000_000)
	width := 12

	// A clock-skewed event slightly in the future must clamp into the last
	// slot instead of indexing out of range
	line, max := BinCounts([]Sample{{Timestamp: now + 30}}, now, width)
	if line == nil {
		t.Fatal("Expected a non-empty histogram")
	}
	testutils.AssertEqual(t, max, uint64(1))
	testutils.AssertEqual(t, line[len(line)-1], uint64(100))
}
