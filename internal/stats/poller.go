package stats

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/lnwatch/eclair-dashboard/internal/eclair"
	"github.com/lnwatch/eclair-dashboard/internal/utils"
)

// DefaultPollInterval is the pause between poll cycles
const DefaultPollInterval = 20 * time.Second

// DefaultAuditLookback is how far back the audit query reaches; the 1-day
// aggregates filter from the same event set
const DefaultAuditLookback = 30 * 24 * time.Hour

// DataSource is the subset of the node API the poller consumes. Implemented
// by *eclair.Client; tests substitute a fake.
type DataSource interface {
	GetInfo() (*eclair.NodeInfo, error)
	GetChannels() ([]eclair.ChannelInfo, error)
	GetAudit(from, to int64) (*eclair.AuditInfo, error)
	GetNodes(ids []string) ([]eclair.NetworkNode, error)
	GetHostedChannels() (map[string]eclair.HostedChannel, error)
	GetFiatChannels() (map[string]eclair.HostedChannel, error)
}

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// Archive receives each successfully built snapshot for history persistence.
// Archive failures never fail a cycle.
type Archive interface {
	SaveCycle(snap *Snapshot) error
}

// PollerConfig tunes a Poller. Zero values fall back to defaults.
type PollerConfig struct {
	Interval      time.Duration
	AuditLookback time.Duration
	// Plugins marks the optional capabilities detected at startup; queries
	// for absent plugins are skipped entirely
	Plugins map[eclair.Plugin]bool
	Archive Archive
	Clock   Clock
	Logger  zerolog.Logger
}

// Poller runs the strictly sequential fetch-build-publish loop. One cycle is
// all-or-nothing: any failure leaves the previous snapshot authoritative and
// only appends to the error log.
type Poller struct {
	src      DataSource
	store    *Store
	interval time.Duration
	lookback time.Duration
	plugins  map[eclair.Plugin]bool
	archive  Archive
	clock    Clock
	log      zerolog.Logger
}

// NewPoller creates a poller over the given data source and store
func NewPoller(src DataSource, store *Store, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.AuditLookback <= 0 {
		cfg.AuditLookback = DefaultAuditLookback
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	return &Poller{
		src:      src,
		store:    store,
		interval: cfg.Interval,
		lookback: cfg.AuditLookback,
		plugins:  cfg.Plugins,
		archive:  cfg.Archive,
		clock:    cfg.Clock,
		log:      cfg.Logger,
	}
}

// Run polls immediately, then on every tick until the context is cancelled.
// Cycles never overlap; a slow call only delays the cycle it belongs to.
func (p *Poller) Run(ctx context.Context) {
	p.runCycle()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCycle()
		}
	}
}

func (p *Poller) runCycle() {
	if err := p.cycle(); err != nil {
		p.store.AppendError(p.clock.Now(), err.Error())
		p.log.Error().Err(err).Msg("poll cycle failed")
	}
}

// cycle performs one full fetch-build-publish pass
func (p *Poller) cycle() error {
	now := p.clock.Now()

	info, err := p.src.GetInfo()
	if err != nil {
		return err
	}

	channels, err := p.src.GetChannels()
	if err != nil {
		return err
	}

	audit, err := p.src.GetAudit(now.Add(-p.lookback).Unix(), now.Unix())
	if err != nil {
		return err
	}

	var hosted, fiat map[string]eclair.HostedChannel
	if p.plugins[eclair.PluginHostedChannels] {
		if hosted, err = p.src.GetHostedChannels(); err != nil {
			return err
		}
	}
	if p.plugins[eclair.PluginFiatChannels] {
		if fiat, err = p.src.GetFiatChannels(); err != nil {
			return err
		}
	}

	nodes, err := p.src.GetNodes(peerIDs(channels, hosted, fiat))
	if err != nil {
		return err
	}

	snap := Build(BuildInput{
		Info:     info,
		Channels: channels,
		Audit:    audit,
		Nodes:    nodes,
		Hosted:   hosted,
		Fiat:     fiat,
	}, now, p.store.Width())

	p.store.Replace(snap)
	p.log.Debug().
		Int("channels", len(channels)).
		Int64("relayed_day", snap.RelayCountDay).
		Str("volume_day", utils.FormatMsat(snap.RelayVolumeDayMsat)).
		Msg("published snapshot")

	if p.archive != nil {
		if err := p.archive.SaveCycle(snap); err != nil {
			p.log.Warn().Err(err).Msg("failed to archive cycle")
		}
	}

	return nil
}

// peerIDs collects the distinct counterpart ids of all channel kinds, sorted
// for a stable nodes query. Ids that are not well-formed compressed public
// keys are dropped; the node's directory would reject the whole query over
// one malformed id.
func peerIDs(channels []eclair.ChannelInfo, hosted, fiat map[string]eclair.HostedChannel) []string {
	seen := make(map[string]bool)
	for _, ch := range channels {
		seen[ch.NodeID] = true
	}
	for _, ch := range hosted {
		seen[ch.Data.Commitments.RemoteNodeID] = true
	}
	for _, ch := range fiat {
		seen[ch.Data.Commitments.RemoteNodeID] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		if utils.ValidateNodeID(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
