package exchanges

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/openquant-labs/gocta/log"
)

// StalenessMonitor watches a gateway's public data feed and invokes the
// resubscribe callback when no update arrives within the timeout. Live
// adapters call Touch on every public channel message; the monitor runs on
// its own goroutine until stopped.
type StalenessMonitor struct {
	name        string
	timeout     time.Duration
	lastUpdate  atomic.Int64 // ms
	resubscribe func()
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewStalenessMonitor returns a started monitor for the named gateway feed
func NewStalenessMonitor(name string, timeout time.Duration, resubscribe func()) *StalenessMonitor {
	m := &StalenessMonitor{
		name:        name,
		timeout:     timeout,
		resubscribe: resubscribe,
		stop:        make(chan struct{}),
	}
	m.Touch()
	go m.run()
	return m
}

// Touch records a public channel update
func (m *StalenessMonitor) Touch() {
	m.lastUpdate.Store(time.Now().UnixMilli())
}

// Stop terminates the monitor goroutine
func (m *StalenessMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *StalenessMonitor) run() {
	ticker := time.NewTicker(m.timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			idle := time.Now().UnixMilli() - m.lastUpdate.Load()
			if idle < m.timeout.Milliseconds() {
				continue
			}
			log.Warnf(log.GatewayMgr, "%s no public data for %dms, resubscribing", m.name, idle)
			m.Touch()
			if m.resubscribe != nil {
				m.resubscribe()
			}
		}
	}
}
