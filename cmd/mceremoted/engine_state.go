package main

import "time"

// EngineState is the top-level, daemon-owned state container.
//
// Goals:
//   - Keep all reducer-owned state in one place (pure reducer, no external
//     mutation, no globals).
//   - Separate dispatch state (the hold machine) from observability state
//     (last seen frame, rail cache, counters) so the debug surfaces can
//     read one coherent snapshot.
//
// The daemon goroutine is the single owner. Other goroutines see state
// only through StatusTracker snapshots and broadcasts.
type EngineState struct {
	// Active is the hold/debounce machine: the one command currently being
	// tracked, and the one key (at most) currently down.
	Active ActiveCommandState

	// LastSeen is the last decoded frame, recognized or not. Pure
	// observability for the status query; dispatch never reads it.
	LastSeen LastSeenState

	// Rail is the cached rail observation from the periodic poll or the
	// last power pulse. The power guard never reads this cache; it always
	// samples fresh inside the effect.
	Rail RailState

	// NextRailPollAt schedules the informational rail poll. Zero means
	// poll on the next tick.
	NextRailPollAt time.Time

	Counters Counters
}

// LastSeenState describes the most recent decoded frame.
type LastSeenState struct {
	Value uint32
	Class string
	At    time.Time
}

// RailState is the cached view of the power-rail sense line.
type RailState struct {
	On    bool
	Known bool
	At    time.Time
}

// Counters are monotonic since process start. They back the status query
// and the property tests.
type Counters struct {
	Frames         uint64 `json:"frames"`
	DecodeMisses   uint64 `json:"decode_misses"`
	Overflows      uint64 `json:"overflows"`
	Unrecognized   uint64 `json:"unrecognized"`
	Presses        uint64 `json:"presses"`
	Releases       uint64 `json:"releases"`
	PowerPulses    uint64 `json:"power_pulses"`
	RedundantPower uint64 `json:"redundant_power"`
	EffectErrors   uint64 `json:"effect_errors"`
}

// EngineTuning carries the reducer's timing knobs.
type EngineTuning struct {
	Hold HoldConfig

	// RailPollEvery is the cadence of the informational rail poll.
	// Zero disables it.
	RailPollEvery time.Duration
}
