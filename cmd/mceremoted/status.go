package main

import (
	"fmt"
	"sync"
	"time"
)

// StatusSnapshot is a point-in-time view of engine state for the debug
// surfaces (IPC status query, HTTP /status, websocket state_init). It is a
// value type, safe to use after the lock is released.
type StatusSnapshot struct {
	StartedAt time.Time `json:"started_at"`
	Now       time.Time `json:"now"`

	// Last decoded frame, recognized or not.
	LastValue    uint32    `json:"last_value"`
	LastValueHex string    `json:"last_value_hex"`
	LastClass    string    `json:"last_class"`
	LastSeenAt   time.Time `json:"last_seen_at"`

	// Cached rail observation from the periodic poll.
	RailKnown bool      `json:"rail_known"`
	RailOn    bool      `json:"rail_on"`
	RailAt    time.Time `json:"rail_at"`

	// Hold machine view.
	ActiveValue  uint32 `json:"active_value"`
	ActiveButton string `json:"active_button"`
	KeyDown      bool   `json:"key_down"`

	Counters Counters `json:"counters"`
}

// Uptime returns the duration since the daemon started.
func (s StatusSnapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartedAt)
}

// StatusTracker holds the latest snapshot behind an RWMutex. The daemon
// loop writes it; IPC and HTTP handlers read it. Nothing outside the
// daemon goroutine ever sees EngineState itself.
type StatusTracker struct {
	mu   sync.RWMutex
	snap StatusSnapshot
}

// NewStatusTracker creates a tracker with the given start time.
func NewStatusTracker(startedAt time.Time) *StatusTracker {
	return &StatusTracker{
		snap: StatusSnapshot{StartedAt: startedAt},
	}
}

// Update replaces the engine-derived fields. Called from the daemon loop
// after every flush.
func (t *StatusTracker) Update(s *EngineState) {
	if s == nil {
		return
	}
	t.mu.Lock()
	t.snap.LastValue = s.LastSeen.Value
	t.snap.LastValueHex = fmt.Sprintf("0x%08X", s.LastSeen.Value)
	t.snap.LastClass = s.LastSeen.Class
	t.snap.LastSeenAt = s.LastSeen.At
	t.snap.RailKnown = s.Rail.Known
	t.snap.RailOn = s.Rail.On
	t.snap.RailAt = s.Rail.At
	t.snap.ActiveValue = s.Active.LastValue
	t.snap.ActiveButton = s.Active.DownButton
	t.snap.KeyDown = s.Active.KeyDown()
	t.snap.Counters = s.Counters
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. The Now field
// is set to the current time at the moment of the call.
func (t *StatusTracker) Snapshot() StatusSnapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
