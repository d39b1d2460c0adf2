package main

import "time"

// ============================================================================
// Key hold / debounce state machine
// ============================================================================
// A held remote button makes the decoder emit a repeat frame every ~100ms.
// Mapping each repeat to a fresh press/release pair floods the host with
// key events, so this machine tracks at most one active command and turns
// the stream into: one press at first sight, silence while repeats keep
// arriving, and one release-all when the repeats stop (ReleaseTimeout of
// inactivity) or when a different command takes over.
//
// Power commands participate in the same value tracking: the first PowerOn
// or PowerOff requests one guarded pulse, repeats of it are suppressed, and
// the inactivity timeout clears the tracking so a later press of the same
// power button is evaluated freshly by the guard.
//
// All transitions are pure functions over ActiveCommandState; they are
// called only from the reducer.
// ============================================================================

// HoldConfig carries the timing knobs of the hold machine.
type HoldConfig struct {
	// ReleaseTimeout is how long the active command may go without a repeat
	// before it counts as released.
	ReleaseTimeout time.Duration
}

func (c HoldConfig) withDefaults() HoldConfig {
	if c.ReleaseTimeout == 0 {
		c.ReleaseTimeout = defaultReleaseTimeout
	}
	return c
}

// ActiveCommandState is the run-time state of the machine. The zero value
// is Idle.
type ActiveCommandState struct {
	// LastValue is the last recognized command value, 0 when idle. Repeat
	// suppression for both key and power commands compares against it.
	LastValue uint32

	// DownAction and DownButton describe the key currently held down.
	// DownAction is nil when no key is down; a power command tracks a value
	// without holding a key.
	DownAction HIDAction
	DownButton string

	// KeyDownAt is when the current press began, zero when no key is down.
	KeyDownAt time.Time

	// LastEventAt is when the active command was last observed.
	LastEventAt time.Time
}

// Idle reports whether no command is being tracked.
func (s ActiveCommandState) Idle() bool { return s.LastValue == 0 }

// KeyDown reports whether a key is currently held on the HID side.
func (s ActiveCommandState) KeyDown() bool { return s.DownAction != nil }

// observeCommand applies one classified command to the machine.
//
// Unrecognized commands change nothing. A repeat of the active command only
// refreshes the inactivity clock. Any other recognized command releases a
// held key first, then presses the new key or requests a guarded power
// pulse.
func observeCommand(st ActiveCommandState, cl Classified, now time.Time) (ActiveCommandState, []Command) {
	if cl.Class == ClassUnrecognized {
		return st, nil
	}

	if !st.Idle() && cl.Cmd.Value == st.LastValue {
		st.LastEventAt = now
		return st, nil
	}

	var cmds []Command
	if st.KeyDown() {
		cmds = append(cmds, CmdReleaseKeys{Action: st.DownAction, Button: st.DownButton})
	}
	st = ActiveCommandState{LastValue: cl.Cmd.Value, LastEventAt: now}

	switch cl.Class {
	case ClassMapped:
		cmds = append(cmds, CmdPressKey{Action: cl.Entry.Action, Button: cl.Entry.Button})
		st.DownAction = cl.Entry.Action
		st.DownButton = cl.Entry.Button
		st.KeyDownAt = now

	case ClassPowerOn:
		cmds = append(cmds, CmdPulsePower{Desire: DesireOn})

	case ClassPowerOff:
		cmds = append(cmds, CmdPulsePower{Desire: DesireOff})
	}

	return st, cmds
}

// checkHoldTimeout runs the inactivity check against the current time. When
// the active command has gone ReleaseTimeout without a repeat, the machine
// resets to Idle, releasing a held key if there is one. Resetting also
// clears LastValue, so the same button pressed again later is treated as a
// fresh command.
func checkHoldTimeout(st ActiveCommandState, now time.Time, cfg HoldConfig) (ActiveCommandState, []Command) {
	if st.Idle() {
		return st, nil
	}
	if now.Sub(st.LastEventAt) < cfg.ReleaseTimeout {
		return st, nil
	}

	var cmds []Command
	if st.KeyDown() {
		cmds = append(cmds, CmdReleaseKeys{Action: st.DownAction, Button: st.DownButton})
	}
	return ActiveCommandState{}, cmds
}
