package cloudsync

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
)

// Connectivity reports whether the remote is reachable and notifies on transitions
type Connectivity interface {
	Online() bool
	// Subscribe registers fn for every online/offline transition and returns a
	// function that removes it
	Subscribe(fn func(online bool)) (unsubscribe func())
}

type notifier struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	next   int
}

func (n *notifier) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *notifier) Subscribe(fn func(online bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(bool))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// set records the new state and notifies subscribers only when it changed
func (n *notifier) set(online bool) {
	n.mu.Lock()
	if n.online == online {
		n.mu.Unlock()
		return
	}
	n.online = online
	subs := make([]func(bool), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// StaticConnectivity is toggled by hand
type StaticConnectivity struct {
	notifier
}

func NewStaticConnectivity(online bool) *StaticConnectivity {
	c := &StaticConnectivity{}
	c.online = online
	return c
}

// Set changes the state, notifying subscribers on a transition
func (c *StaticConnectivity) Set(online bool) {
	c.set(online)
}

// Monitor probes the remote on an interval
type Monitor struct {
	notifier
	probe    func(ctx context.Context) error
	interval time.Duration
	timeout  time.Duration
}

// NewMonitor creates a monitor that starts offline until the first probe succeeds
func NewMonitor(probe func(ctx context.Context) error, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = constants.DefaultProbeInterval
	}
	timeout := interval / 2
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &Monitor{probe: probe, interval: interval, timeout: timeout}
}

// Check runs one probe and updates the state
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.probe(pctx)
	if err != nil {
		logger.Debug("Connectivity probe failed", "error", err)
	}
	m.set(err == nil)
	return err == nil
}

// Run probes immediately and then on every tick until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
