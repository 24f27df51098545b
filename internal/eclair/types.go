package eclair

import (
	"encoding/json"
	"fmt"
)

// ChannelState is the lifecycle state Eclair reports for a channel
type ChannelState string

const (
	StateNormal                  ChannelState = "NORMAL"
	StateOpening                 ChannelState = "OPENING"
	StateClosing                 ChannelState = "CLOSING"
	StateClosed                  ChannelState = "CLOSED"
	StateOffline                 ChannelState = "OFFLINE"
	StateSyncing                 ChannelState = "SYNCING"
	StateWaitForFundingConfirmed ChannelState = "WAIT_FOR_FUNDING_CONFIRMED"
)

// IsNormal reports whether the channel is active and usable for relaying
func (s ChannelState) IsNormal() bool {
	return s == StateNormal
}

// IsPending reports whether the channel is in a transitional state
func (s ChannelState) IsPending() bool {
	return s == StateOpening || s == StateClosing || s == StateSyncing ||
		s == StateWaitForFundingConfirmed
}

// IsSleeping reports whether the channel's peer is currently offline
func (s ChannelState) IsSleeping() bool {
	return s == StateOffline
}

// NodeInfo represents the response from getinfo
type NodeInfo struct {
	Version         string   `json:"version"`
	NodeID          string   `json:"nodeId"`
	Alias           string   `json:"alias"`
	Color           string   `json:"color"`
	ChainHash       string   `json:"chainHash"`
	Network         string   `json:"network"`
	BlockHeight     int64    `json:"blockHeight"`
	PublicAddresses []string `json:"publicAddresses"`
}

// ChannelInfo represents one entry of the channels response. Data is absent
// for channels whose type-specific payload the node does not expose.
type ChannelInfo struct {
	NodeID    string       `json:"nodeId"`
	ChannelID string       `json:"channelId"`
	State     ChannelState `json:"state"`
	Data      *ChannelData `json:"data,omitempty"`
}

// LocalBalanceMsat returns the local balance of the channel in millisatoshi.
// A channel without a payload reports 0.
func (c *ChannelInfo) LocalBalanceMsat() int64 {
	if c.Data == nil {
		return 0
	}
	return c.Data.Commitments.LocalCommit.Spec.ToLocal
}

// RemoteBalanceMsat returns the remote balance of the channel in millisatoshi
func (c *ChannelInfo) RemoteBalanceMsat() int64 {
	if c.Data == nil {
		return 0
	}
	return c.Data.Commitments.LocalCommit.Spec.ToRemote
}

// IsPublic reports whether the channel is announced to the network
func (c *ChannelInfo) IsPublic() bool {
	if c.Data == nil {
		return false
	}
	return c.Data.Commitments.ChannelFlags.AnnounceChannel
}

// ChannelData carries the commitment details of a standard channel
type ChannelData struct {
	Type           string      `json:"type"`
	Commitments    Commitments `json:"commitments"`
	ShortChannelID string      `json:"shortChannelId,omitempty"`
}

// Commitments represents the commitment pair of a standard channel
type Commitments struct {
	ChannelID    string       `json:"channelId"`
	ChannelFlags ChannelFlags `json:"channelFlags"`
	LocalCommit  LocalCommit  `json:"localCommit"`
}

// ChannelFlags represents the channel's announcement flags
type ChannelFlags struct {
	AnnounceChannel bool `json:"announceChannel"`
}

// LocalCommit represents the node's current commitment
type LocalCommit struct {
	Index int64      `json:"index"`
	Spec  CommitSpec `json:"spec"`
}

// CommitSpec carries the balance split of a commitment, in millisatoshi
type CommitSpec struct {
	ToLocal  int64 `json:"toLocal"`
	ToRemote int64 `json:"toRemote"`
}

// Timestamp is an event timestamp from the audit log. Eclair reports the
// unix field in milliseconds; decoding normalizes it to epoch seconds, which
// is the only representation the rest of the code uses.
type Timestamp struct {
	ISO  string `json:"iso"`
	Unix int64  `json:"unix"`
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw struct {
		ISO  string `json:"iso"`
		Unix int64  `json:"unix"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode timestamp: %w", err)
	}
	t.ISO = raw.ISO
	t.Unix = raw.Unix / 1000
	return nil
}

// AuditInfo represents the response from audit. Only relayed events feed the
// derived statistics; sent and received are decoded for completeness.
type AuditInfo struct {
	Sent     []SentEvent     `json:"sent"`
	Received []ReceivedEvent `json:"received"`
	Relayed  []RelayedEvent  `json:"relayed"`
}

// RelayedEvent represents a payment forwarded through this node. Amounts are
// in millisatoshi.
type RelayedEvent struct {
	Type          string    `json:"type"`
	AmountIn      int64     `json:"amountIn"`
	AmountOut     int64     `json:"amountOut"`
	PaymentHash   string    `json:"paymentHash"`
	FromChannelID string    `json:"fromChannelId"`
	ToChannelID   string    `json:"toChannelId"`
	Timestamp     Timestamp `json:"timestamp"`
}

// FeeMsat returns the fee earned by relaying this payment
func (e *RelayedEvent) FeeMsat() int64 {
	return e.AmountIn - e.AmountOut
}

// SentEvent represents an outgoing payment from the audit log
type SentEvent struct {
	Type            string `json:"type"`
	ID              string `json:"id"`
	PaymentHash     string `json:"paymentHash"`
	RecipientAmount int64  `json:"recipientAmount"`
	RecipientNodeID string `json:"recipientNodeId"`
}

// ReceivedEvent represents an incoming payment from the audit log
type ReceivedEvent struct {
	Type        string `json:"type"`
	PaymentHash string `json:"paymentHash"`
}

// NetworkNode represents a peer entry from the nodes response
type NetworkNode struct {
	NodeID    string   `json:"nodeId"`
	Alias     string   `json:"alias"`
	RGBColor  string   `json:"rgbColor"`
	Addresses []string `json:"addresses"`
}

// Plugin identifies an optional Eclair plugin probed at startup
type Plugin string

const (
	// PluginHostedChannels serves custodial channels via hc-all
	PluginHostedChannels Plugin = "hosted-channels"
	// PluginFiatChannels serves currency-pegged channels via fc-all
	PluginFiatChannels Plugin = "fiat-channels"
)

// KnownPlugins lists the plugins the dashboard knows how to query
func KnownPlugins() []Plugin {
	return []Plugin{PluginHostedChannels, PluginFiatChannels}
}

func (p Plugin) endpoint() string {
	switch p {
	case PluginHostedChannels:
		return "hc-all"
	case PluginFiatChannels:
		return "fc-all"
	}
	return ""
}

// HostedChannelsResponse represents the response from hc-all or fc-all,
// keyed by channel id
type HostedChannelsResponse struct {
	Channels map[string]HostedChannel `json:"channels"`
}

// HostedChannel represents one custodial channel. Fiat channels carry the
// latest oracle rate in the data payload; plain hosted channels leave it 0.
type HostedChannel struct {
	State ChannelState      `json:"state"`
	Data  HostedChannelData `json:"data"`
}

// LocalBalanceMsat returns the local balance of the hosted channel
func (c *HostedChannel) LocalBalanceMsat() int64 {
	return c.Data.Commitments.LocalSpec.ToLocal
}

// RemoteBalanceMsat returns the remote balance of the hosted channel
func (c *HostedChannel) RemoteBalanceMsat() int64 {
	return c.Data.Commitments.LocalSpec.ToRemote
}

// HostedChannelData carries the commitment and oracle details of a hosted
// channel
type HostedChannelData struct {
	Commitments     HostedCommitments `json:"commitments"`
	LastOracleState int64             `json:"lastOracleState,omitempty"`
}

// HostedCommitments represents the commitment of a hosted channel
type HostedCommitments struct {
	LocalNodeID  string     `json:"localNodeId"`
	RemoteNodeID string     `json:"remoteNodeId"`
	ChannelID    string     `json:"channelId"`
	LocalSpec    CommitSpec `json:"localSpec"`
}
