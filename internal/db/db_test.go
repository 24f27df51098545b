package db

import (
	"errors"
	"testing"
	"time"

	"github.com/lnwatch/eclair-dashboard/internal/eclair"
	"github.com/lnwatch/eclair-dashboard/internal/stats"
	"github.com/lnwatch/eclair-dashboard/internal/testutils"
)

func createTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := testutils.CreateTestDBPath(t)
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}

func TestNewDatabase(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	if db == nil {
		t.Fatal("Expected database to be created, got nil")
	}
}

func TestInsertAndGetCycleSnapshot(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	snapshot := &CycleSnapshot{
		Timestamp:        time.Now().Truncate(time.Second), // SQLite precision
		ActiveChannels:   4,
		PendingChannels:  1,
		SleepingChannels: 2,
		ActiveBalance:    5_000_000_000,
		PendingBalance:   200_000_000,
		SleepingBalance:  900_000_000,
		RelayCountDay:    17,
		RelayVolumeDay:   1_200_000_000,
		FeeDay:           1_200_000,
		FeeMonth:         34_000_000,
	}

	err := db.InsertCycleSnapshot(snapshot)
	testutils.AssertNoError(t, err)

	retrieved, err := db.GetLatestCycleSnapshot()
	testutils.AssertNoError(t, err)

	if retrieved == nil {
		t.Fatal("Expected to retrieve cycle snapshot, got nil")
	}

	testutils.AssertEqual(t, retrieved.ActiveChannels, snapshot.ActiveChannels)
	testutils.AssertEqual(t, retrieved.SleepingChannels, snapshot.SleepingChannels)
	testutils.AssertEqual(t, retrieved.ActiveBalance, snapshot.ActiveBalance)
	testutils.AssertEqual(t, retrieved.RelayCountDay, snapshot.RelayCountDay)
	testutils.AssertEqual(t, retrieved.FeeMonth, snapshot.FeeMonth)
}

func TestGetLatestCycleSnapshotEmpty(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	retrieved, err := db.GetLatestCycleSnapshot()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an empty archive, got %v", err)
	}
	if retrieved != nil {
		t.Error("Expected nil snapshot for empty archive")
	}
}

func TestGetCycleSnapshotsRange(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	now := time.Now().Truncate(time.Second)
	for i, age := range []time.Duration{48 * time.Hour, 24 * time.Hour, time.Hour} {
		snapshot := &CycleSnapshot{
			Timestamp:      now.Add(-age),
			ActiveChannels: i + 1,
		}
		err := db.InsertCycleSnapshot(snapshot)
		testutils.AssertNoError(t, err)
	}

	from := now.Add(-25 * time.Hour)
	to := now.Add(time.Hour)

	snapshots, err := db.GetCycleSnapshots(from, to)
	testutils.AssertNoError(t, err)

	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots in range, got %d", len(snapshots))
	}

	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].Timestamp.Before(snapshots[i-1].Timestamp) {
			t.Error("Snapshots should be in chronological order")
		}
	}
}

func TestInsertCycleSnapshotDuplicateTimestamp(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	ts := time.Now().Truncate(time.Second)
	first := &CycleSnapshot{Timestamp: ts, ActiveChannels: 3}
	second := &CycleSnapshot{Timestamp: ts, ActiveChannels: 9}

	testutils.AssertNoError(t, db.InsertCycleSnapshot(first))
	testutils.AssertNoError(t, db.InsertCycleSnapshot(second))

	snapshots, err := db.GetCycleSnapshots(ts.Add(-time.Minute), ts.Add(time.Minute))
	testutils.AssertNoError(t, err)

	if len(snapshots) != 1 {
		t.Fatalf("Expected duplicate timestamp to be ignored, got %d rows", len(snapshots))
	}
	testutils.AssertEqual(t, snapshots[0].ActiveChannels, 3)
}

func TestInsertAndGetRelayEvents(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	event := &RelayEvent{
		Timestamp:    time.Now().Truncate(time.Second),
		ChannelInID:  "aaaa0000",
		ChannelOutID: "bbbb1111",
		AmountIn:     100_000_000,
		AmountOut:    99_900_000,
		Fee:          100_000,
	}

	err := db.InsertRelayEventIgnoreDuplicate(event)
	testutils.AssertNoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	events, err := db.GetRelayEvents(from, to)
	testutils.AssertNoError(t, err)

	if len(events) != 1 {
		t.Fatalf("Expected 1 relay event, got %d", len(events))
	}
	testutils.AssertEqual(t, events[0].ChannelInID, "aaaa0000")
	testutils.AssertEqual(t, events[0].AmountIn, int64(100_000_000))
	testutils.AssertEqual(t, events[0].Fee, int64(100_000))
}

func TestInsertRelayEventIgnoreDuplicate(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	event := &RelayEvent{
		Timestamp:    time.Now().Truncate(time.Second),
		ChannelInID:  "aaaa0000",
		ChannelOutID: "bbbb1111",
		AmountIn:     50_000_000,
		AmountOut:    49_950_000,
		Fee:          50_000,
	}

	testutils.AssertNoError(t, db.InsertRelayEventIgnoreDuplicate(event))
	testutils.AssertNoError(t, db.InsertRelayEventIgnoreDuplicate(event))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	events, err := db.GetRelayEvents(from, to)
	testutils.AssertNoError(t, err)

	if len(events) != 1 {
		t.Fatalf("Expected duplicate relay event to be ignored, got %d rows", len(events))
	}
}

func TestGetRelayFees(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	now := time.Now().Truncate(time.Second)
	events := []*RelayEvent{
		{Timestamp: now.Add(-2 * time.Hour), ChannelInID: "a", ChannelOutID: "b", AmountIn: 1000, AmountOut: 900, Fee: 100},
		{Timestamp: now.Add(-time.Hour), ChannelInID: "b", ChannelOutID: "c", AmountIn: 2000, AmountOut: 1950, Fee: 50},
	}
	for _, e := range events {
		testutils.AssertNoError(t, db.InsertRelayEventIgnoreDuplicate(e))
	}

	feeData, err := db.GetRelayFees(now.Add(-24*time.Hour), now.Add(time.Hour))
	testutils.AssertNoError(t, err)

	if len(feeData) == 0 {
		t.Fatal("Expected at least one day of fee data")
	}

	var totalFee, totalCount int64
	for _, day := range feeData {
		if day.Date == "" {
			t.Error("Date should not be empty")
		}
		totalFee += day.TotalFee
		totalCount += day.RelayCount
	}
	testutils.AssertEqual(t, totalFee, int64(150))
	testutils.AssertEqual(t, totalCount, int64(2))
}

func TestSaveCycle(t *testing.T) {
	db := createTestDB(t)
	defer db.Close()

	now := time.Now().Truncate(time.Second)
	snap := &stats.Snapshot{
		TakenAt:            now,
		Active:             stats.GroupTotals{Count: 2, BalanceMsat: 3_000_000_000},
		Sleeping:           stats.GroupTotals{Count: 1, BalanceMsat: 500_000_000},
		RelayCountDay:      2,
		RelayVolumeDayMsat: 3000,
		FeeDayMsat:         30,
		FeeMonthMsat:       90,
		Relayed: []eclair.RelayedEvent{
			{
				AmountIn:      1000,
				AmountOut:     990,
				FromChannelID: "in1",
				ToChannelID:   "out1",
				Timestamp:     eclair.Timestamp{Unix: now.Add(-time.Hour).Unix()},
			},
			{
				AmountIn:      2000,
				AmountOut:     1980,
				FromChannelID: "in2",
				ToChannelID:   "out2",
				Timestamp:     eclair.Timestamp{Unix: now.Add(-30 * time.Minute).Unix()},
			},
		},
	}

	testutils.AssertNoError(t, db.SaveCycle(snap))

	latest, err := db.GetLatestCycleSnapshot()
	testutils.AssertNoError(t, err)
	if latest == nil {
		t.Fatal("Expected archived cycle summary, got nil")
	}
	testutils.AssertEqual(t, latest.ActiveChannels, 2)
	testutils.AssertEqual(t, latest.ActiveBalance, int64(3_000_000_000))

	events, err := db.GetRelayEvents(now.Add(-2*time.Hour), now.Add(time.Hour))
	testutils.AssertNoError(t, err)
	if len(events) != 2 {
		t.Fatalf("Expected 2 archived relay events, got %d", len(events))
	}

	// A second cycle carrying the same events must not duplicate them
	testutils.AssertNoError(t, db.SaveCycle(snap))

	events, err = db.GetRelayEvents(now.Add(-2*time.Hour), now.Add(time.Hour))
	testutils.AssertNoError(t, err)
	if len(events) != 2 {
		t.Fatalf("Expected re-archived events to be deduplicated, got %d", len(events))
	}
}
