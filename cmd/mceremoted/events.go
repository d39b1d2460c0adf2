package main

import "time"

// ============================================================================
// Events
// ============================================================================
// Events are the only inputs to the reducer. The frame sources, the ticker
// and the effects layer produce them; the daemon loop feeds them through
// Reduce one at a time. Nothing outside the daemon goroutine ever touches
// EngineState directly.
// ============================================================================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// FrameEvent carries one decoded, toggle-normalized frame from a source.
// Overflow marks a frame slot the receiver truncated; its Cmd value is
// meaningless and the reducer only counts it.
type FrameEvent struct {
	Cmd      RemoteCommand
	Overflow bool
	At       time.Time
}

func (FrameEvent) eventMarker() {}

// DecodeMissEvent is emitted when a source saw an IR burst it could not
// decode into a frame. Diagnostics only; dispatch state never changes.
type DecodeMissEvent struct {
	At time.Time
}

func (DecodeMissEvent) eventMarker() {}

// Tick is emitted by the daemon loop at the poll cadence. It drives the
// hold-timeout check and the periodic rail poll schedule.
type Tick struct {
	Now time.Time
}

func (Tick) eventMarker() {}

// RailObserved is the observation from a CmdSenseRail effect: the current
// level of the power-rail sense line.
type RailObserved struct {
	On bool
	At time.Time
}

func (RailObserved) eventMarker() {}

// PowerPulseResult is the observation from a CmdPulsePower effect. RailOn
// is the fresh sample taken before deciding; Fired tells whether the pulse
// actually ran or the guard judged it redundant.
type PowerPulseResult struct {
	Desire PowerDesire
	RailOn bool
	Fired  bool
	At     time.Time
}

func (PowerPulseResult) eventMarker() {}

// KeyWritten is the observation after a successful HID report write.
// Pressed=false is a release; Action is nil for a release-all write.
type KeyWritten struct {
	Pressed bool
	Action  HIDAction
	Button  string
	At      time.Time
}

func (KeyWritten) eventMarker() {}

// EffectFailed is emitted when executing a Command fails. The reducer
// counts it; none of these are fatal.
type EffectFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (EffectFailed) eventMarker() {}

// ============================================================================
// State broadcasts
// ============================================================================
// Broadcasts are reducer-emitted notifications for external observers (the
// websocket hub and the MQTT publisher). They describe what happened, not
// what to do; dropping one loses a notification, never a dispatch.
// ============================================================================

// StateBroadcast is a marker for reducer-emitted observer notifications.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastKeyPressed reports a HID key went down.
type BroadcastKeyPressed struct {
	Button string
	Action string
	At     time.Time
}

func (BroadcastKeyPressed) broadcastMarker() {}

// BroadcastKeyReleased reports the held HID key was released.
type BroadcastKeyReleased struct {
	Button string
	At     time.Time
}

func (BroadcastKeyReleased) broadcastMarker() {}

// BroadcastPowerPulsed reports a guarded power pulse actually fired.
// RailOn is the rail level sampled just before the pulse.
type BroadcastPowerPulsed struct {
	Desire PowerDesire
	RailOn bool
	At     time.Time
}

func (BroadcastPowerPulsed) broadcastMarker() {}

// BroadcastPowerRedundant reports a power command the guard suppressed
// because the rail already matched the desired state.
type BroadcastPowerRedundant struct {
	Desire PowerDesire
	RailOn bool
	At     time.Time
}

func (BroadcastPowerRedundant) broadcastMarker() {}

// BroadcastRailState reports a change in the sensed power-rail level,
// observed by the periodic informational poll.
type BroadcastRailState struct {
	On bool
	At time.Time
}

func (BroadcastRailState) broadcastMarker() {}
