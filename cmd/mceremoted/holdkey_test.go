package main

import (
	"testing"
	"time"
)

var holdCfg = HoldConfig{ReleaseTimeout: 150 * time.Millisecond}

func classifiedFor(t *testing.T, value uint32) Classified {
	t.Helper()
	cl := Classify(mceCmd(value))
	if cl.Class == ClassUnrecognized {
		t.Fatalf("test code 0x%08X must be recognized", value)
	}
	return cl
}

// TestObserveCommand_PressOnFirstSight tests that a fresh mapped command
// presses its key exactly once.
func TestObserveCommand_PressOnFirstSight(t *testing.T) {
	now := time.Now()
	st, cmds := observeCommand(ActiveCommandState{}, classifiedFor(t, 0x800F0412), now)

	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	press, ok := cmds[0].(CmdPressKey)
	if !ok {
		t.Fatalf("expected CmdPressKey, got %T", cmds[0])
	}
	if press.Button != "KEY_CHANNELUP" {
		t.Errorf("expected KEY_CHANNELUP, got %s", press.Button)
	}

	if !st.KeyDown() {
		t.Error("expected a key to be down")
	}
	if st.LastValue != 0x800F0412 {
		t.Errorf("expected LastValue 0x800F0412, got 0x%08X", st.LastValue)
	}
	if st.KeyDownAt != now || st.LastEventAt != now {
		t.Error("expected press and activity timestamps set to now")
	}
}

// TestObserveCommand_RepeatRefreshesOnly tests that a repeat of the active
// command emits nothing and only refreshes the inactivity clock.
func TestObserveCommand_RepeatRefreshesOnly(t *testing.T) {
	t0 := time.Now()
	cl := classifiedFor(t, 0x800F0412)

	st, _ := observeCommand(ActiveCommandState{}, cl, t0)

	for i := 1; i <= 3; i++ {
		at := t0.Add(time.Duration(i) * 50 * time.Millisecond)
		var cmds []Command
		st, cmds = observeCommand(st, cl, at)
		if len(cmds) != 0 {
			t.Fatalf("repeat %d: expected no commands, got %v", i, cmds)
		}
		if st.LastEventAt != at {
			t.Errorf("repeat %d: expected LastEventAt refreshed", i)
		}
		if st.KeyDownAt != t0 {
			t.Errorf("repeat %d: press timestamp must not move", i)
		}
	}
}

// TestObserveCommand_ChangeReleasesThenPresses tests the command-change
// path: the held key is released before the new key goes down.
func TestObserveCommand_ChangeReleasesThenPresses(t *testing.T) {
	t0 := time.Now()
	st, _ := observeCommand(ActiveCommandState{}, classifiedFor(t, 0x800F0412), t0)

	st, cmds := observeCommand(st, classifiedFor(t, 0x800F0413), t0.Add(80*time.Millisecond))
	if len(cmds) != 2 {
		t.Fatalf("expected release+press, got %d commands: %v", len(cmds), cmds)
	}
	rel, ok := cmds[0].(CmdReleaseKeys)
	if !ok {
		t.Fatalf("expected CmdReleaseKeys first, got %T", cmds[0])
	}
	if rel.Button != "KEY_CHANNELUP" {
		t.Errorf("expected release of KEY_CHANNELUP, got %s", rel.Button)
	}
	press, ok := cmds[1].(CmdPressKey)
	if !ok {
		t.Fatalf("expected CmdPressKey second, got %T", cmds[1])
	}
	if press.Button != "KEY_CHANNELDOWN" {
		t.Errorf("expected press of KEY_CHANNELDOWN, got %s", press.Button)
	}
	if st.LastValue != 0x800F0413 || st.DownButton != "KEY_CHANNELDOWN" {
		t.Errorf("unexpected state after change: %+v", st)
	}
}

// TestObserveCommand_UnrecognizedChangesNothing tests that an unrecognized
// command is a strict no-op for the machine.
func TestObserveCommand_UnrecognizedChangesNothing(t *testing.T) {
	t0 := time.Now()
	held, _ := observeCommand(ActiveCommandState{}, classifiedFor(t, 0x800F0412), t0)

	unknown := Classified{Class: ClassUnrecognized, Cmd: mceCmd(0xDEADBEEF)}
	got, cmds := observeCommand(held, unknown, t0.Add(40*time.Millisecond))

	if len(cmds) != 0 {
		t.Fatalf("expected no commands, got %v", cmds)
	}
	if got != held {
		t.Errorf("expected state unchanged, got %+v vs %+v", got, held)
	}

	// Also from idle.
	got, cmds = observeCommand(ActiveCommandState{}, unknown, t0)
	if len(cmds) != 0 || !got.Idle() {
		t.Errorf("expected idle no-op, got %+v / %v", got, cmds)
	}
}

// TestCheckHoldTimeout_ReleasesAfterSilence tests the inactivity release:
// nothing before the timeout, one release at the timeout, idle after.
func TestCheckHoldTimeout_ReleasesAfterSilence(t *testing.T) {
	t0 := time.Now()
	st, _ := observeCommand(ActiveCommandState{}, classifiedFor(t, 0x800F0410), t0)

	st, cmds := checkHoldTimeout(st, t0.Add(149*time.Millisecond), holdCfg)
	if len(cmds) != 0 {
		t.Fatalf("expected no release before the timeout, got %v", cmds)
	}
	if st.Idle() {
		t.Fatal("machine must still track the command before the timeout")
	}

	st, cmds = checkHoldTimeout(st, t0.Add(150*time.Millisecond), holdCfg)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 release command, got %d", len(cmds))
	}
	rel, ok := cmds[0].(CmdReleaseKeys)
	if !ok {
		t.Fatalf("expected CmdReleaseKeys, got %T", cmds[0])
	}
	if rel.Button != "KEY_VOLUMEUP" {
		t.Errorf("expected KEY_VOLUMEUP released, got %s", rel.Button)
	}
	if !st.Idle() || st.KeyDown() {
		t.Errorf("expected idle state after timeout, got %+v", st)
	}

	// Idle machine: further checks do nothing.
	st, cmds = checkHoldTimeout(st, t0.Add(time.Second), holdCfg)
	if len(cmds) != 0 || !st.Idle() {
		t.Errorf("expected idle no-op, got %+v / %v", st, cmds)
	}
}

// TestCheckHoldTimeout_RepeatDefersRelease tests that repeats keep pushing
// the release out.
func TestCheckHoldTimeout_RepeatDefersRelease(t *testing.T) {
	t0 := time.Now()
	cl := classifiedFor(t, 0x800F0410)

	st, _ := observeCommand(ActiveCommandState{}, cl, t0)
	st, _ = observeCommand(st, cl, t0.Add(100*time.Millisecond))

	// 150ms after the first frame but only 50ms after the repeat.
	st, cmds := checkHoldTimeout(st, t0.Add(150*time.Millisecond), holdCfg)
	if len(cmds) != 0 {
		t.Fatalf("expected repeat to defer the release, got %v", cmds)
	}

	st, cmds = checkHoldTimeout(st, t0.Add(250*time.Millisecond), holdCfg)
	if len(cmds) != 1 {
		t.Fatalf("expected release 150ms after the last repeat, got %d commands", len(cmds))
	}
	if !st.Idle() {
		t.Error("expected idle state")
	}
}

// TestHoldMachine_PressRepeatChangeSequence tests the canonical sequence:
// C1, C1 repeat, C1 repeat, C2 produces press(C1), release(C1), press(C2).
func TestHoldMachine_PressRepeatChangeSequence(t *testing.T) {
	t0 := time.Now()
	c1 := classifiedFor(t, 0x800F0412)
	c2 := classifiedFor(t, 0x800F0413)

	var all []Command
	st := ActiveCommandState{}
	for _, step := range []struct {
		cl Classified
		at time.Time
	}{
		{c1, t0},
		{c1, t0.Add(50 * time.Millisecond)},
		{c1, t0.Add(100 * time.Millisecond)},
		{c2, t0.Add(150 * time.Millisecond)},
	} {
		var cmds []Command
		st, cmds = observeCommand(st, step.cl, step.at)
		all = append(all, cmds...)
	}

	if len(all) != 3 {
		t.Fatalf("expected press, release, press; got %d commands: %v", len(all), all)
	}
	if p, ok := all[0].(CmdPressKey); !ok || p.Button != "KEY_CHANNELUP" {
		t.Errorf("command 0: expected press KEY_CHANNELUP, got %v", all[0])
	}
	if r, ok := all[1].(CmdReleaseKeys); !ok || r.Button != "KEY_CHANNELUP" {
		t.Errorf("command 1: expected release KEY_CHANNELUP, got %v", all[1])
	}
	if p, ok := all[2].(CmdPressKey); !ok || p.Button != "KEY_CHANNELDOWN" {
		t.Errorf("command 2: expected press KEY_CHANNELDOWN, got %v", all[2])
	}
}

// TestObserveCommand_PowerPulseOnceThenSuppressed tests that a power
// command requests one pulse and its repeats are swallowed.
func TestObserveCommand_PowerPulseOnceThenSuppressed(t *testing.T) {
	t0 := time.Now()
	on := classifiedFor(t, powerOnCode)

	st, cmds := observeCommand(ActiveCommandState{}, on, t0)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	pulse, ok := cmds[0].(CmdPulsePower)
	if !ok || pulse.Desire != DesireOn {
		t.Fatalf("expected CmdPulsePower(on), got %v", cmds[0])
	}
	if st.KeyDown() {
		t.Error("power commands must not hold a key down")
	}

	for i := 1; i <= 3; i++ {
		var repeat []Command
		st, repeat = observeCommand(st, on, t0.Add(time.Duration(i)*50*time.Millisecond))
		if len(repeat) != 0 {
			t.Fatalf("repeat %d: expected pulse suppressed, got %v", i, repeat)
		}
	}
}

// TestObserveCommand_PowerSupersedesHeldKey tests that a power command
// releases a held key before pulsing.
func TestObserveCommand_PowerSupersedesHeldKey(t *testing.T) {
	t0 := time.Now()
	st, _ := observeCommand(ActiveCommandState{}, classifiedFor(t, 0x800F0410), t0)

	st, cmds := observeCommand(st, classifiedFor(t, powerOffCode), t0.Add(60*time.Millisecond))
	if len(cmds) != 2 {
		t.Fatalf("expected release+pulse, got %v", cmds)
	}
	if _, ok := cmds[0].(CmdReleaseKeys); !ok {
		t.Errorf("expected CmdReleaseKeys first, got %T", cmds[0])
	}
	pulse, ok := cmds[1].(CmdPulsePower)
	if !ok || pulse.Desire != DesireOff {
		t.Errorf("expected CmdPulsePower(off), got %v", cmds[1])
	}
	if st.KeyDown() {
		t.Error("no key may be down while a power command is tracked")
	}
}

// TestCheckHoldTimeout_PowerTrackingExpires tests that the timeout clears a
// tracked power value without emitting a release, so a later press of the
// same power button is evaluated freshly.
func TestCheckHoldTimeout_PowerTrackingExpires(t *testing.T) {
	t0 := time.Now()
	on := classifiedFor(t, powerOnCode)

	st, _ := observeCommand(ActiveCommandState{}, on, t0)
	st, cmds := checkHoldTimeout(st, t0.Add(200*time.Millisecond), holdCfg)
	if len(cmds) != 0 {
		t.Fatalf("no key was down, expected no release, got %v", cmds)
	}
	if !st.Idle() {
		t.Fatal("expected power tracking cleared after the timeout")
	}

	// The same power button later requests a fresh pulse.
	_, cmds = observeCommand(st, on, t0.Add(5*time.Second))
	if len(cmds) != 1 {
		t.Fatalf("expected a fresh pulse request, got %v", cmds)
	}
	if _, ok := cmds[0].(CmdPulsePower); !ok {
		t.Errorf("expected CmdPulsePower, got %T", cmds[0])
	}
}

// TestHoldConfig_Defaults tests the fallback release timeout.
func TestHoldConfig_Defaults(t *testing.T) {
	cfg := HoldConfig{}.withDefaults()
	if cfg.ReleaseTimeout != defaultReleaseTimeout {
		t.Errorf("expected default release timeout %v, got %v", defaultReleaseTimeout, cfg.ReleaseTimeout)
	}
	cfg = HoldConfig{ReleaseTimeout: time.Second}.withDefaults()
	if cfg.ReleaseTimeout != time.Second {
		t.Errorf("expected explicit timeout kept, got %v", cfg.ReleaseTimeout)
	}
}
