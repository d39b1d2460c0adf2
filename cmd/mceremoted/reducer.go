package main

import "fmt"

// This file implements the reducer-style architecture building blocks:
//
//   - Commands: side effects requested by the reducer (HID reports, power
//     pulses, rail samples)
//   - Reduce(): computes next state + commands + broadcasts, without
//     performing I/O
//
// The reducer must be pure. All engine state is embedded in EngineState and
// the hold-machine transitions are the pure functions in holdkey.go. The
// daemon loop is responsible for executing Commands and feeding the
// resulting observations back as Events.

// ==============================
// Commands (side effects)
// ==============================

// Command represents an external side effect to be executed by the daemon
// loop. In this codebase, those are HID gadget writes and GPIO operations.
type Command interface {
	commandMarker()
	String() string
}

// CmdPressKey requests a press report for one action.
type CmdPressKey struct {
	Action HIDAction
	Button string
}

func (CmdPressKey) commandMarker() {}
func (c CmdPressKey) String() string {
	return fmt.Sprintf("CmdPressKey(button=%s, action=%s)", c.Button, c.Action)
}

// CmdReleaseKeys requests a release report. Action is the action that was
// down; nil means release both device classes.
type CmdReleaseKeys struct {
	Action HIDAction
	Button string
}

func (CmdReleaseKeys) commandMarker() {}
func (c CmdReleaseKeys) String() string {
	if c.Action == nil {
		return "CmdReleaseKeys(all)"
	}
	return fmt.Sprintf("CmdReleaseKeys(button=%s, action=%s)", c.Button, c.Action)
}

// CmdPulsePower requests one guarded power pulse. The effect samples the
// rail first and fires only when the sample disagrees with the desire.
type CmdPulsePower struct {
	Desire PowerDesire
}

func (CmdPulsePower) commandMarker() {}
func (c CmdPulsePower) String() string {
	return fmt.Sprintf("CmdPulsePower(desire=%s)", c.Desire)
}

// CmdSenseRail requests an informational rail sample.
type CmdSenseRail struct{}

func (CmdSenseRail) commandMarker() {}
func (CmdSenseRail) String() string { return "CmdSenseRail()" }

// ==============================
// Reducer input/output
// ==============================

// ReduceResult is the output of Reduce(): next state plus the Commands to
// execute and the Broadcasts to publish.
type ReduceResult struct {
	State      *EngineState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce is the pure reducer:
//
// Rules:
//   - Must not perform I/O
//   - Must not block
//   - Must not mutate anything outside the returned state
//
// The daemon loop must:
//   - execute Commands
//   - translate their results into Events
//   - feed those Events back into Reduce()
func Reduce(s *EngineState, e Event, tun EngineTuning) ReduceResult {
	if s == nil {
		s = &EngineState{}
	}
	tun.Hold = tun.Hold.withDefaults()

	var cmds []Command
	var bcasts []StateBroadcast

	switch ev := e.(type) {
	case FrameEvent:
		if ev.Overflow {
			// Truncated receiver buffer: the value is garbage. Count it and
			// treat it like a decode miss for dispatch.
			s.Counters.Overflows++
			break
		}
		s.Counters.Frames++

		cl := Classify(ev.Cmd)
		s.LastSeen = LastSeenState{Value: ev.Cmd.Value, Class: cl.Label(), At: ev.At}

		if cl.Class == ClassUnrecognized {
			// Unknown code: counted and visible in LastSeen, but the hold
			// machine does not move and nothing is emitted.
			s.Counters.Unrecognized++
			break
		}

		s.Active, cmds = observeCommand(s.Active, cl, ev.At)

	case DecodeMissEvent:
		s.Counters.DecodeMisses++

	case Tick:
		s.Active, cmds = checkHoldTimeout(s.Active, ev.Now, tun.Hold)

		if tun.RailPollEvery > 0 && !ev.Now.Before(s.NextRailPollAt) {
			cmds = append(cmds, CmdSenseRail{})
			s.NextRailPollAt = ev.Now.Add(tun.RailPollEvery)
		}

	case RailObserved:
		changed := !s.Rail.Known || s.Rail.On != ev.On
		s.Rail = RailState{On: ev.On, Known: true, At: ev.At}
		if changed {
			bcasts = append(bcasts, BroadcastRailState{On: ev.On, At: ev.At})
		}

	case PowerPulseResult:
		// The effect sampled the rail before deciding; cache that sample.
		// When the pulse fired the rail is about to flip, and the periodic
		// poll picks the new level up shortly.
		s.Rail = RailState{On: ev.RailOn, Known: true, At: ev.At}
		if ev.Fired {
			s.Counters.PowerPulses++
			bcasts = append(bcasts, BroadcastPowerPulsed{Desire: ev.Desire, RailOn: ev.RailOn, At: ev.At})
		} else {
			s.Counters.RedundantPower++
			bcasts = append(bcasts, BroadcastPowerRedundant{Desire: ev.Desire, RailOn: ev.RailOn, At: ev.At})
		}

	case KeyWritten:
		if ev.Pressed {
			s.Counters.Presses++
			action := ""
			if ev.Action != nil {
				action = ev.Action.String()
			}
			bcasts = append(bcasts, BroadcastKeyPressed{Button: ev.Button, Action: action, At: ev.At})
		} else {
			s.Counters.Releases++
			bcasts = append(bcasts, BroadcastKeyReleased{Button: ev.Button, At: ev.At})
		}

	case EffectFailed:
		// Keep dispatch state as-is; a failed report or pulse is logged by
		// the effects layer and only counted here.
		s.Counters.EffectErrors++

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{
		State:      s,
		Commands:   cmds,
		Broadcasts: bcasts,
	}
}
