package infra

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StateProber reports the relay instance state.
type StateProber interface {
	ConnectionState(ctx context.Context) (string, error)
}

// RelayStatus is one observation of the relay connection.
type RelayStatus struct {
	Connected bool      `json:"connected"`
	State     string    `json:"state,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// RelayMonitor answers "is WhatsApp connected" on demand. Status reuses the
// last observation while it is younger than maxAge; Run optionally keeps it
// fresh from any tick source.
type RelayMonitor struct {
	prober StateProber
	maxAge time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last *RelayStatus
}

func NewRelayMonitor(prober StateProber, maxAge time.Duration, now func() time.Time) *RelayMonitor {
	if now == nil {
		now = time.Now
	}
	return &RelayMonitor{prober: prober, maxAge: maxAge, now: now}
}

// Status returns a cached observation when fresh, otherwise probes.
func (m *RelayMonitor) Status(ctx context.Context) RelayStatus {
	m.mu.Lock()
	if m.last != nil && m.now().Sub(m.last.CheckedAt) < m.maxAge {
		st := *m.last
		m.mu.Unlock()
		return st
	}
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// Refresh always probes and records the result.
func (m *RelayMonitor) Refresh(ctx context.Context) RelayStatus {
	st := RelayStatus{CheckedAt: m.now()}
	state, err := m.prober.ConnectionState(ctx)
	if err != nil {
		st.Error = err.Error()
		log.Warn().Err(err).Msg("relay_monitor: connection state check failed")
	} else {
		st.State = state
		st.Connected = state == "open"
	}

	m.mu.Lock()
	m.last = &st
	m.mu.Unlock()
	return st
}

// Last returns the latest observation without probing.
func (m *RelayMonitor) Last() (RelayStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return RelayStatus{}, false
	}
	return *m.last, true
}

// Run probes once, then on every tick until ctx is done or ticks is closed.
func (m *RelayMonitor) Run(ctx context.Context, ticks <-chan time.Time) {
	m.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("relay_monitor: shutting down")
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			m.Refresh(ctx)
		}
	}
}
