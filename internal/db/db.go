package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lnwatch/eclair-dashboard/internal/stats"
)

var (
	// ErrNotFound indicates that the archive holds no row matching the query
	ErrNotFound = errors.New("resource not found")
)

// Database is the local history archive. It only ever accumulates what the
// poller already derived; the aggregation path never reads it back.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a new database connection and initializes tables
func NewDatabase(dbPath string) (*Database, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &Database{conn: conn}

	if err := db.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// initTables creates all required tables
func (db *Database) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS relay_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			channel_in_id TEXT NOT NULL,
			channel_out_id TEXT NOT NULL,
			amount_in INTEGER NOT NULL,
			amount_out INTEGER NOT NULL,
			fee INTEGER NOT NULL,
			UNIQUE(timestamp, channel_in_id, channel_out_id)
		);`,

		`CREATE INDEX IF NOT EXISTS idx_relay_events_timestamp ON relay_events(timestamp);`,

		`CREATE TABLE IF NOT EXISTS cycle_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			active_channels INTEGER NOT NULL DEFAULT 0,
			pending_channels INTEGER NOT NULL DEFAULT 0,
			sleeping_channels INTEGER NOT NULL DEFAULT 0,
			active_balance INTEGER NOT NULL DEFAULT 0,
			pending_balance INTEGER NOT NULL DEFAULT 0,
			sleeping_balance INTEGER NOT NULL DEFAULT 0,
			relay_count_day INTEGER NOT NULL DEFAULT 0,
			relay_volume_day INTEGER NOT NULL DEFAULT 0,
			fee_day INTEGER NOT NULL DEFAULT 0,
			fee_month INTEGER NOT NULL DEFAULT 0,
			UNIQUE(timestamp)
		);`,

		`CREATE INDEX IF NOT EXISTS idx_cycle_snapshots_timestamp ON cycle_snapshots(timestamp);`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// SaveCycle archives one successfully built snapshot: the summary row plus
// any relay events not yet stored. Implements stats.Archive.
func (db *Database) SaveCycle(snap *stats.Snapshot) error {
	summary := &CycleSnapshot{
		Timestamp:        snap.TakenAt,
		ActiveChannels:   snap.Active.Count,
		PendingChannels:  snap.Pending.Count,
		SleepingChannels: snap.Sleeping.Count,
		ActiveBalance:    snap.Active.BalanceMsat,
		PendingBalance:   snap.Pending.BalanceMsat,
		SleepingBalance:  snap.Sleeping.BalanceMsat,
		RelayCountDay:    snap.RelayCountDay,
		RelayVolumeDay:   snap.RelayVolumeDayMsat,
		FeeDay:           snap.FeeDayMsat,
		FeeMonth:         snap.FeeMonthMsat,
	}
	if err := db.InsertCycleSnapshot(summary); err != nil {
		return err
	}

	for _, e := range snap.Relayed {
		event := &RelayEvent{
			Timestamp:    time.Unix(e.Timestamp.Unix, 0).UTC(),
			ChannelInID:  e.FromChannelID,
			ChannelOutID: e.ToChannelID,
			AmountIn:     e.AmountIn,
			AmountOut:    e.AmountOut,
			Fee:          e.FeeMsat(),
		}
		if err := db.InsertRelayEventIgnoreDuplicate(event); err != nil {
			return err
		}
	}

	return nil
}

// InsertCycleSnapshot inserts a new cycle summary row
func (db *Database) InsertCycleSnapshot(snapshot *CycleSnapshot) error {
	query := `
		INSERT OR IGNORE INTO cycle_snapshots
		(timestamp, active_channels, pending_channels, sleeping_channels,
		 active_balance, pending_balance, sleeping_balance,
		 relay_count_day, relay_volume_day, fee_day, fee_month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		snapshot.Timestamp,
		snapshot.ActiveChannels,
		snapshot.PendingChannels,
		snapshot.SleepingChannels,
		snapshot.ActiveBalance,
		snapshot.PendingBalance,
		snapshot.SleepingBalance,
		snapshot.RelayCountDay,
		snapshot.RelayVolumeDay,
		snapshot.FeeDay,
		snapshot.FeeMonth,
	)

	return err
}

// GetCycleSnapshots retrieves archived cycle summaries within a time range
func (db *Database) GetCycleSnapshots(from, to time.Time) ([]CycleSnapshot, error) {
	query := `
		SELECT id, timestamp, active_channels, pending_channels, sleeping_channels,
		       active_balance, pending_balance, sleeping_balance,
		       relay_count_day, relay_volume_day, fee_day, fee_month
		FROM cycle_snapshots
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC
	`

	rows, err := db.conn.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []CycleSnapshot
	for rows.Next() {
		var s CycleSnapshot
		err := rows.Scan(
			&s.ID, &s.Timestamp, &s.ActiveChannels, &s.PendingChannels,
			&s.SleepingChannels, &s.ActiveBalance, &s.PendingBalance,
			&s.SleepingBalance, &s.RelayCountDay, &s.RelayVolumeDay,
			&s.FeeDay, &s.FeeMonth,
		)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// GetLatestCycleSnapshot retrieves the most recent archived cycle summary.
// Returns ErrNotFound when no cycle has been archived yet.
func (db *Database) GetLatestCycleSnapshot() (*CycleSnapshot, error) {
	query := `
		SELECT id, timestamp, active_channels, pending_channels, sleeping_channels,
		       active_balance, pending_balance, sleeping_balance,
		       relay_count_day, relay_volume_day, fee_day, fee_month
		FROM cycle_snapshots
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var s CycleSnapshot
	err := db.conn.QueryRow(query).Scan(
		&s.ID, &s.Timestamp, &s.ActiveChannels, &s.PendingChannels,
		&s.SleepingChannels, &s.ActiveBalance, &s.PendingBalance,
		&s.SleepingBalance, &s.RelayCountDay, &s.RelayVolumeDay,
		&s.FeeDay, &s.FeeMonth,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// InsertRelayEventIgnoreDuplicate inserts a relay event, ignoring rows the
// archive has already seen in a previous cycle
func (db *Database) InsertRelayEventIgnoreDuplicate(event *RelayEvent) error {
	query := `
		INSERT OR IGNORE INTO relay_events
		(timestamp, channel_in_id, channel_out_id, amount_in, amount_out, fee)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		event.Timestamp,
		event.ChannelInID,
		event.ChannelOutID,
		event.AmountIn,
		event.AmountOut,
		event.Fee,
	)

	return err
}

// GetRelayEvents retrieves archived relay events within a time range
func (db *Database) GetRelayEvents(from, to time.Time) ([]RelayEvent, error) {
	query := `
		SELECT id, timestamp, channel_in_id, channel_out_id, amount_in, amount_out, fee
		FROM relay_events
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC
	`

	rows, err := db.conn.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RelayEvent
	for rows.Next() {
		var e RelayEvent
		err := rows.Scan(
			&e.ID, &e.Timestamp, &e.ChannelInID, &e.ChannelOutID,
			&e.AmountIn, &e.AmountOut, &e.Fee,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// GetRelayFees retrieves relay fee data aggregated by day within a time range
func (db *Database) GetRelayFees(from, to time.Time) ([]DailyFeeData, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			SUM(fee) as total_fee,
			COUNT(*) as relay_count
		FROM relay_events
		WHERE timestamp BETWEEN ? AND ?
		GROUP BY DATE(timestamp)
		ORDER BY date ASC
	`

	rows, err := db.conn.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeData []DailyFeeData
	for rows.Next() {
		var d DailyFeeData
		err := rows.Scan(&d.Date, &d.TotalFee, &d.RelayCount)
		if err != nil {
			return nil, err
		}
		feeData = append(feeData, d)
	}

	return feeData, rows.Err()
}
