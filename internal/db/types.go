package db

import (
	"time"
)

// RelayEvent represents one archived payment relay. Amounts are in
// millisatoshi, matching the node API.
type RelayEvent struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	ChannelInID  string    `json:"channel_in_id" db:"channel_in_id"`
	ChannelOutID string    `json:"channel_out_id" db:"channel_out_id"`
	AmountIn     int64     `json:"amount_in" db:"amount_in"`
	AmountOut    int64     `json:"amount_out" db:"amount_out"`
	Fee          int64     `json:"fee" db:"fee"`
}

// CycleSnapshot represents the summary row archived after each successful
// poll cycle
type CycleSnapshot struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	ActiveChannels   int `json:"active_channels" db:"active_channels"`
	PendingChannels  int `json:"pending_channels" db:"pending_channels"`
	SleepingChannels int `json:"sleeping_channels" db:"sleeping_channels"`

	ActiveBalance   int64 `json:"active_balance" db:"active_balance"`
	PendingBalance  int64 `json:"pending_balance" db:"pending_balance"`
	SleepingBalance int64 `json:"sleeping_balance" db:"sleeping_balance"`

	RelayCountDay  int64 `json:"relay_count_day" db:"relay_count_day"`
	RelayVolumeDay int64 `json:"relay_volume_day" db:"relay_volume_day"`
	FeeDay         int64 `json:"fee_day" db:"fee_day"`
	FeeMonth       int64 `json:"fee_month" db:"fee_month"`
}

// DailyFeeData represents aggregated fee data for a specific day
type DailyFeeData struct {
	Date       string `json:"date" db:"date"`
	TotalFee   int64  `json:"total_fee" db:"total_fee"`
	RelayCount int64  `json:"relay_count" db:"relay_count"`
}
