package stats

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWidth is the display width assumed before the presentation layer
// reports a real one
const DefaultWidth = 80

// Store holds the latest snapshot and the error log, shared between the
// poller (sole writer) and the presentation layer (reader). A single mutex
// guards both; nothing slow ever runs under it.
type Store struct {
	mu     sync.Mutex
	snap   *Snapshot
	errors []string
	width  int
}

// NewStore creates an empty store with the given initial display width
func NewStore(width int) *Store {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Store{width: width}
}

// Replace publishes a new snapshot, superseding the previous one wholesale.
// If the display width changed while the snapshot was being built, its
// histograms are recomputed for the current width before publishing.
func (s *Store) Replace(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap != nil && snap.Width != s.width {
		snap = rebinned(snap, s.width)
	}
	s.snap = snap
}

// Snapshot returns the currently published snapshot, or nil before the first
// successful poll cycle. The returned value is immutable by contract.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Width returns the current display width
func (s *Store) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Resize records a new display width and recomputes the histogram series
// from the relay events already embedded in the current snapshot. No network
// traffic; readers see either the old snapshot or the rebinned one, never a
// half-updated mix.
func (s *Store) Resize(width int) {
	if width <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if width == s.width {
		return
	}
	s.width = width
	if s.snap != nil {
		s.snap = rebinned(s.snap, width)
	}
}

// rebinned shallow-copies a snapshot with its histograms recomputed for the
// new width. The window stays anchored at the snapshot's poll time, so the
// result matches a full rebuild from the same events.
func rebinned(snap *Snapshot, width int) *Snapshot {
	next := *snap
	next.Width = width

	samples := relaySamples(snap.Relayed)
	nowUnix := snap.TakenAt.Unix()
	next.RelayCountLine, next.RelayCountMax = BinCounts(samples, nowUnix, width)
	next.RelayVolumeLine, next.RelayVolumeMax = BinVolumes(samples, nowUnix, width)

	return &next
}

// AppendError records a timestamped failure message. Errors accumulate
// across poll cycles until explicitly cleared.
func (s *Store) AppendError(at time.Time, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, fmt.Sprintf("[%s] %s", at.Format(time.RFC3339), msg))
}

// Errors returns a copy of the accumulated error messages
func (s *Store) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.errors) == 0 {
		return nil
	}
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// ClearErrors empties the error log, leaving the snapshot untouched
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = nil
}
