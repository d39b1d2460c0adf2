package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop - Reducer-driven dispatch engine
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands +
//     broadcasts.
//   - This loop is the only place that executes side effects (HID reports,
//     GPIO pulses, rail samples).
//   - Effect results are turned into Events and fed back into the reducer.
//   - Use an explicit event queue and command queue (no nested/re-entrant
//     execution).
//
// Single-threaded on purpose: one frame is fully dispatched, including a
// blocking power pulse, before the next event is looked at. The frame
// sources park behind the decoder latch while this loop is busy.
//
// ============================================================================

// runDaemon is the main daemon loop that:
//   - Receives Events from the frame sources
//   - Emits Tick events at the poll cadence
//   - Reduces events into (state, commands, broadcasts)
//   - Executes commands against the devices and feeds observations back
//   - Publishes state snapshots to the tracker and broadcasts to observers
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	deps EffectDeps,
	tun EngineTuning,
	state *EngineState,
	pollHz int,
	tracker *StatusTracker,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) {
	// Guard: reducer-driven daemon expects a state container.
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}
	if pollHz <= 0 {
		pollHz = defaultPollHz
	}

	ticker := time.NewTicker(time.Second / time.Duration(pollHz))
	defer ticker.Stop()

	// Explicit queues:
	// - eventQueue holds events awaiting reduction
	// - cmdQueue holds commands awaiting execution
	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}
	enqueueCommands := func(cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		cmdQueue = append(cmdQueue, cmds...)
	}

	// Broadcasts are best-effort: a full observer queue drops the
	// notification rather than stalling dispatch.
	publishBroadcasts := func(bcasts []StateBroadcast) {
		if broadcasts == nil {
			return
		}
		for _, b := range bcasts {
			select {
			case broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping notification")
			}
		}
	}

	// Reduce all queued events, enqueuing any resulting commands.
	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, tun)
			if rr.State != nil {
				state = rr.State
			}
			enqueueCommands(rr.Commands)
			publishBroadcasts(rr.Broadcasts)
		}
	}

	// Execute all queued commands, enqueuing observation events.
	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			logger.Debug("executing command", "command", cmd.String())
			runEffect(deps, cmd, logger, func(obs Event) {
				enqueueEvent(obs)
			})

			// Observations should be reduced promptly to keep state coherent
			// and let the reducer emit follow-up commands (if any).
			flushEvents()
		}
	}

	publishStatus := func() {
		if tracker != nil {
			tracker.Update(state)
		}
	}

	// Main loop
	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(ev)
			flushEvents()
			flushCommands()
			publishStatus()

		case now := <-ticker.C:
			enqueueEvent(Tick{Now: now})
			flushEvents()
			flushCommands()
			publishStatus()
		}
	}
}

// fanOutBroadcasts copies broadcasts from the daemon's single output
// channel to every observer sink (websocket hub, MQTT mirror). Sends are
// non-blocking; a backed-up sink misses the notification.
func fanOutBroadcasts(ctx context.Context, src <-chan StateBroadcast, sinks ...chan<- StateBroadcast) {
	defer func() {
		for _, sink := range sinks {
			close(sink)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-src:
			if !ok {
				return
			}
			for _, sink := range sinks {
				select {
				case sink <- b:
				default:
				}
			}
		}
	}
}

// NOTE:
// Command execution is implemented in `effects.go` as `runEffect(...)`.
// This file is only responsible for orchestrating event/command queues and
// reducer invocation.
