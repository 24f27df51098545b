package stats

import (
	"time"

	"github.com/lnwatch/eclair-dashboard/internal/eclair"
)

// ChannelKind distinguishes the three channel shapes a statistic can describe
type ChannelKind string

const (
	KindStandard ChannelKind = "standard"
	KindHosted   ChannelKind = "hosted"
	KindFiat     ChannelKind = "fiat"
)

// ChannelStat is the derived per-channel statistic. All amounts are in
// millisatoshi. Relay figures cover the trailing day.
type ChannelStat struct {
	ChannelID  string      `json:"channelId"`
	PeerID     string      `json:"peerId"`
	Alias      string      `json:"alias"`
	Kind       ChannelKind `json:"kind"`
	LocalMsat  int64       `json:"localMsat"`
	RemoteMsat int64       `json:"remoteMsat"`
	// Public is meaningful only for standard channels
	Public          bool  `json:"public"`
	RelayCount      int64 `json:"relayCount"`
	RelayVolumeMsat int64 `json:"relayVolumeMsat"`
	RelayFeesMsat   int64 `json:"relayFeesMsat"`
	// RateMsat is the oracle exchange rate of a fiat channel, in millisatoshi
	// per fiat unit; 0 for the other kinds
	RateMsat int64 `json:"rateMsat,omitempty"`
}

// ReverseRate converts the channel's oracle rate to fiat per whole bitcoin.
// Returns 0 for channels without a rate.
func (c *ChannelStat) ReverseRate() float64 {
	if c.RateMsat == 0 {
		return 0
	}
	// 1e11 msat in one BTC
	return 1e11 / float64(c.RateMsat)
}

// FiatBalance returns the local balance expressed in the pegged currency.
// Returns 0 for channels without a rate.
func (c *ChannelStat) FiatBalance() float64 {
	if c.RateMsat == 0 {
		return 0
	}
	return float64(c.LocalMsat) / float64(c.RateMsat)
}

// GroupTotals aggregates one display group of channels
type GroupTotals struct {
	Count       int   `json:"count"`
	BalanceMsat int64 `json:"balanceMsat"`
}

// Snapshot is the complete set of derived metrics for one poll cycle. It is
// built once by Build, published wholesale, and never mutated afterwards.
type Snapshot struct {
	Node    eclair.NodeInfo `json:"node"`
	TakenAt time.Time       `json:"takenAt"`
	Width   int             `json:"width"`

	Active   GroupTotals `json:"active"`
	Pending  GroupTotals `json:"pending"`
	Sleeping GroupTotals `json:"sleeping"`

	RelayCountDay        int64 `json:"relayCountDay"`
	RelayCountMonth      int64 `json:"relayCountMonth"`
	RelayVolumeDayMsat   int64 `json:"relayVolumeDayMsat"`
	RelayVolumeMonthMsat int64 `json:"relayVolumeMonthMsat"`
	FeeDayMsat           int64 `json:"feeDayMsat"`
	FeeMonthMsat         int64 `json:"feeMonthMsat"`

	// ReturnRate is the annualized fee return on channel volume, in percent.
	// Non-finite when the node has no channel volume.
	ReturnRate float64 `json:"-"`

	RelayCountLine  []uint64 `json:"relayCountLine"`
	RelayCountMax   uint64   `json:"relayCountMax"`
	RelayVolumeLine []uint64 `json:"relayVolumeLine"`
	RelayVolumeMax  uint64   `json:"relayVolumeMax"`

	Channels       []ChannelStat `json:"channels"`
	HostedChannels []ChannelStat `json:"hostedChannels"`
	FiatChannels   []ChannelStat `json:"fiatChannels"`

	// Relayed keeps the raw trailing-month relay events so histograms can be
	// recomputed on resize without a fresh poll
	Relayed []eclair.RelayedEvent `json:"-"`
}

// TotalVolumeMsat is the node's full local channel volume across all three
// display groups
func (s *Snapshot) TotalVolumeMsat() int64 {
	return s.Active.BalanceMsat + s.Pending.BalanceMsat + s.Sleeping.BalanceMsat
}

// RelayedPercent is the trailing-month relayed volume as a percentage of the
// node's channel volume. Non-finite when the node has no channel volume.
func (s *Snapshot) RelayedPercent() float64 {
	return 100 * float64(s.RelayVolumeMonthMsat) / float64(s.TotalVolumeMsat())
}
