package main

import (
	"log/slog"
	"time"
)

// EffectDeps bundles the devices the effects layer drives. Sleep is
// injectable so tests can run the power pulse without waiting.
type EffectDeps struct {
	HID   HIDOutput
	Rail  RailSensor
	Power PowerSwitch

	// PulseWidth is how long the power switch is held asserted.
	PulseWidth time.Duration

	Sleep func(time.Duration)
}

func (d EffectDeps) withDefaults() EffectDeps {
	if d.PulseWidth == 0 {
		d.PulseWidth = defaultPowerPulse
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	return d
}

// runEffect executes a single reducer-emitted Command (side effect) against
// the HID gadget and GPIO devices and emits observation Events via onEvent.
//
// Design rules:
//   - This function is allowed to perform I/O and to block. The power pulse
//     holds the switch for PulseWidth and stalls the daemon loop on
//     purpose: no other command is dispatched mid-pulse.
//   - It must never call Reduce() directly; it only emits Events to be
//     reduced by the daemon loop.
func runEffect(deps EffectDeps, cmd Command, logger *slog.Logger, onEvent func(Event)) {
	if onEvent == nil {
		return
	}
	deps = deps.withDefaults()

	now := time.Now()

	switch c := cmd.(type) {
	case CmdPressKey:
		if deps.HID == nil {
			onEvent(EffectFailed{Command: cmd, Err: errNoDevice{"hid"}, At: now})
			return
		}
		if err := deps.HID.Press(c.Action); err != nil {
			logger.Error("hid press failed", "button", c.Button, "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Info("key pressed", "button", c.Button, "action", c.Action.String())
		onEvent(KeyWritten{Pressed: true, Action: c.Action, Button: c.Button, At: now})

	case CmdReleaseKeys:
		if deps.HID == nil {
			onEvent(EffectFailed{Command: cmd, Err: errNoDevice{"hid"}, At: now})
			return
		}
		var err error
		if c.Action != nil {
			err = deps.HID.Release(c.Action)
		} else {
			err = deps.HID.ReleaseAll()
		}
		if err != nil {
			logger.Error("hid release failed", "button", c.Button, "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Info("key released", "button", c.Button)
		onEvent(KeyWritten{Pressed: false, Action: c.Action, Button: c.Button, At: now})

	case CmdPulsePower:
		if deps.Rail == nil || deps.Power == nil {
			onEvent(EffectFailed{Command: cmd, Err: errNoDevice{"gpio"}, At: now})
			return
		}

		// The guard decides on a fresh sample, per command. A stale cached
		// rail state must never pick whether the pulse fires.
		railOn, err := deps.Rail.SenseOn()
		if err != nil {
			logger.Error("rail sense failed", "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}

		if !powerActionNeeded(c.Desire, railOn) {
			logger.Info("power pulse suppressed, rail already matches", "desire", c.Desire.String(), "rail_on", railOn)
			onEvent(PowerPulseResult{Desire: c.Desire, RailOn: railOn, Fired: false, At: now})
			return
		}

		if err := deps.Power.Assert(); err != nil {
			logger.Error("power switch assert failed", "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}
		deps.Sleep(deps.PulseWidth)
		if err := deps.Power.Deassert(); err != nil {
			logger.Error("power switch deassert failed", "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}

		logger.Info("power pulse fired", "desire", c.Desire.String(), "rail_on", railOn, "pulse", deps.PulseWidth)
		onEvent(PowerPulseResult{Desire: c.Desire, RailOn: railOn, Fired: true, At: now})

	case CmdSenseRail:
		if deps.Rail == nil {
			onEvent(EffectFailed{Command: cmd, Err: errNoDevice{"gpio"}, At: now})
			return
		}
		railOn, err := deps.Rail.SenseOn()
		if err != nil {
			logger.Error("rail sense failed", "error", err)
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(RailObserved{On: railOn, At: now})

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(EffectFailed{Command: cmd, Err: errUnknownCommand{cmd: cmd}, At: now})
	}
}

// errNoDevice indicates a command needed a device that was not wired up.
type errNoDevice struct {
	dev string
}

func (e errNoDevice) Error() string { return "no " + e.dev + " device" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
