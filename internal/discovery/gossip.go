// Package discovery propagates cluster membership over gossip. Joins
// and leaves flip host status and trigger a topology rebuild; the
// routing core itself stays unaware of how membership changes arrive.
package discovery

import (
	"fmt"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

// Config holds gossip settings
type Config struct {
	Enabled        bool
	NodeName       string
	BindPort       int
	SeedNodes      []string
	GossipInterval time.Duration
	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
}

// Gossip tracks cluster membership via memberlist. Member names are
// expected to match host identities (hostname:port of the data port).
type Gossip struct {
	ml       *memberlist.Memberlist
	hosts    map[string]*model.Host
	onChange func()
	logger   *zap.Logger
}

// NewGossip joins the gossip mesh and wires membership events to the
// given hosts. onChange fires after any status flip so the owner can
// rebuild the topology.
func NewGossip(cfg Config, hosts []*model.Host, onChange func(), logger *zap.Logger) (*Gossip, error) {
	g := &Gossip{
		hosts:    make(map[string]*model.Host, len(hosts)),
		onChange: onChange,
		logger:   logger,
	}
	for _, h := range hosts {
		g.hosts[h.Key()] = h
	}

	mlConfig := memberlist.DefaultLANConfig()
	mlConfig.Name = cfg.NodeName
	mlConfig.BindPort = cfg.BindPort
	if cfg.GossipInterval > 0 {
		mlConfig.GossipInterval = cfg.GossipInterval
	}
	if cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	if cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	mlConfig.Events = &eventDelegate{gossip: g}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	g.ml = ml

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			logger.Warn("Failed to join some seed nodes", zap.Error(err))
		}
	}

	return g, nil
}

// Members returns the current number of known members
func (g *Gossip) Members() int {
	return g.ml.NumMembers()
}

// Shutdown leaves the mesh and stops gossip
func (g *Gossip) Shutdown() error {
	if err := g.ml.Leave(time.Second); err != nil {
		g.logger.Warn("Gossip leave failed", zap.Error(err))
	}
	return g.ml.Shutdown()
}

func (g *Gossip) notify(name string, status model.HostStatus) {
	host, ok := g.hosts[name]
	if !ok {
		g.logger.Debug("Gossip event for unknown member", zap.String("member", name))
		return
	}
	if host.Status() == status {
		return
	}
	host.SetStatus(status)
	g.logger.Info("Host status changed via gossip",
		zap.String("host", host.Key()),
		zap.String("status", status.String()))
	if g.onChange != nil {
		g.onChange()
	}
}

// eventDelegate maps memberlist events onto host status flips
type eventDelegate struct {
	gossip *Gossip
}

// NotifyJoin implements memberlist.EventDelegate
func (d *eventDelegate) NotifyJoin(n *memberlist.Node) {
	d.gossip.notify(n.Name, model.StatusUp)
}

// NotifyLeave implements memberlist.EventDelegate
func (d *eventDelegate) NotifyLeave(n *memberlist.Node) {
	d.gossip.notify(n.Name, model.StatusDown)
}

// NotifyUpdate implements memberlist.EventDelegate
func (d *eventDelegate) NotifyUpdate(n *memberlist.Node) {
	// Metadata updates carry no health signal here
}
