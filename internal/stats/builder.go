package stats

import (
	"sort"
	"time"

	"github.com/lnwatch/eclair-dashboard/internal/eclair"
	"github.com/lnwatch/eclair-dashboard/internal/utils"
)

const (
	dayWindow   int64 = 24 * 3600
	monthWindow int64 = 30 * 24 * 3600
	// statsLookback scopes per-channel relay figures
	statsLookback int64 = dayWindow
	// annualizedMonths projects the monthly fee total to a yearly return
	annualizedMonths = 12
)

// BuildInput bundles the raw query results of one poll cycle
type BuildInput struct {
	Info     *eclair.NodeInfo
	Channels []eclair.ChannelInfo
	Audit    *eclair.AuditInfo
	Nodes    []eclair.NetworkNode
	Hosted   map[string]eclair.HostedChannel
	Fiat     map[string]eclair.HostedChannel
}

// Build derives a complete Snapshot from one cycle's query results. It is a
// pure transform: same input and clock produce an identical snapshot.
func Build(in BuildInput, now time.Time, width int) *Snapshot {
	snap := &Snapshot{
		TakenAt: now,
		Width:   width,
	}
	if in.Info != nil {
		snap.Node = *in.Info
	}

	for _, ch := range in.Channels {
		switch {
		case ch.State.IsNormal():
			snap.Active.Count++
			snap.Active.BalanceMsat += ch.LocalBalanceMsat()
		case ch.State.IsPending():
			snap.Pending.Count++
			snap.Pending.BalanceMsat += ch.LocalBalanceMsat()
		case ch.State.IsSleeping():
			snap.Sleeping.Count++
			snap.Sleeping.BalanceMsat += ch.LocalBalanceMsat()
		}
		// Closed channels belong to no group
	}

	aliases := aliasIndex(in.Nodes)

	var relayed []eclair.RelayedEvent
	if in.Audit != nil {
		relayed = in.Audit.Relayed
	}
	snap.Relayed = relayed

	nowUnix := now.Unix()
	for _, e := range relayed {
		ts := e.Timestamp.Unix
		if ts > nowUnix-dayWindow {
			snap.RelayCountDay++
			snap.RelayVolumeDayMsat += e.AmountIn
			snap.FeeDayMsat += e.FeeMsat()
		}
		if ts > nowUnix-monthWindow {
			snap.RelayCountMonth++
			snap.RelayVolumeMonthMsat += e.AmountIn
			snap.FeeMonthMsat += e.FeeMsat()
		}
	}

	// IEEE-754 division: non-finite when the node has no channel volume,
	// callers treat that as "undefined"
	snap.ReturnRate = annualizedMonths * 100 * float64(snap.FeeMonthMsat) /
		float64(snap.TotalVolumeMsat())

	samples := relaySamples(relayed)
	snap.RelayCountLine, snap.RelayCountMax = BinCounts(samples, nowUnix, width)
	snap.RelayVolumeLine, snap.RelayVolumeMax = BinVolumes(samples, nowUnix, width)

	for _, ch := range in.Channels {
		stat := ChannelStat{
			ChannelID:  ch.ChannelID,
			PeerID:     ch.NodeID,
			Alias:      resolveAlias(aliases, ch.NodeID),
			Kind:       KindStandard,
			LocalMsat:  ch.LocalBalanceMsat(),
			RemoteMsat: ch.RemoteBalanceMsat(),
			Public:     ch.IsPublic(),
		}
		fillRelayFigures(&stat, relayed, nowUnix)
		snap.Channels = append(snap.Channels, stat)
	}

	snap.HostedChannels = pluginStats(in.Hosted, KindHosted, aliases, relayed, nowUnix)
	snap.FiatChannels = pluginStats(in.Fiat, KindFiat, aliases, relayed, nowUnix)

	return snap
}

// pluginStats derives statistics for one secondary channel kind. Map
// iteration is ordered by channel id so repeated builds stay identical.
func pluginStats(channels map[string]eclair.HostedChannel, kind ChannelKind,
	aliases map[string]string, relayed []eclair.RelayedEvent, nowUnix int64) []ChannelStat {

	if len(channels) == 0 {
		return nil
	}

	ids := make([]string, 0, len(channels))
	for id := range channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stats := make([]ChannelStat, 0, len(ids))
	for _, id := range ids {
		ch := channels[id]
		stat := ChannelStat{
			ChannelID:  id,
			PeerID:     ch.Data.Commitments.RemoteNodeID,
			Alias:      resolveAlias(aliases, ch.Data.Commitments.RemoteNodeID),
			Kind:       kind,
			LocalMsat:  ch.LocalBalanceMsat(),
			RemoteMsat: ch.RemoteBalanceMsat(),
		}
		if kind == KindFiat {
			stat.RateMsat = ch.Data.LastOracleState
		}
		fillRelayFigures(&stat, relayed, nowUnix)
		stats = append(stats, stat)
	}

	return stats
}

// fillRelayFigures attributes relay events to a channel when the event
// entered or left through it, inside the stats lookback window
func fillRelayFigures(stat *ChannelStat, relayed []eclair.RelayedEvent, nowUnix int64) {
	for _, e := range relayed {
		if e.Timestamp.Unix <= nowUnix-statsLookback {
			continue
		}
		if e.FromChannelID != stat.ChannelID && e.ToChannelID != stat.ChannelID {
			continue
		}
		stat.RelayCount++
		stat.RelayVolumeMsat += e.AmountIn
		stat.RelayFeesMsat += e.FeeMsat()
	}
}

func aliasIndex(nodes []eclair.NetworkNode) map[string]string {
	index := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.Alias != "" {
			index[n.NodeID] = n.Alias
		}
	}
	return index
}

// resolveAlias falls back to a truncated node id when the peer directory has
// no alias for it
func resolveAlias(aliases map[string]string, nodeID string) string {
	if alias, ok := aliases[nodeID]; ok {
		return alias
	}
	return utils.TruncateNodeID(nodeID)
}

func relaySamples(relayed []eclair.RelayedEvent) []Sample {
	samples := make([]Sample, len(relayed))
	for i, e := range relayed {
		samples[i] = Sample{Timestamp: e.Timestamp.Unix, Amount: e.AmountIn}
	}
	return samples
}
