package main

import (
	"encoding/json"
	"testing"
	"time"
)

type mqttEnvelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts"`
	Data json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, payload []byte) mqttEnvelope {
	t.Helper()
	var env mqttEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode envelope %s: %v", payload, err)
	}
	return env
}

// TestEncodeBroadcast_KeyPressed tests the event envelope on the events
// topic.
func TestEncodeBroadcast_KeyPressed(t *testing.T) {
	at := time.Date(2024, 11, 3, 20, 15, 0, 0, time.UTC)
	msgs := encodeBroadcast("htpc", BroadcastKeyPressed{Button: "KEY_PLAY", Action: "Consumer(0x0CD)", At: at})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Topic != "htpc/events" || msgs[0].Retained {
		t.Errorf("unexpected message shape: %+v", msgs[0])
	}

	env := decodeEnvelope(t, msgs[0].Payload)
	if env.Type != "key_pressed" {
		t.Errorf("expected type key_pressed, got %q", env.Type)
	}
	if env.Ts == nil || !env.Ts.Equal(at) {
		t.Errorf("expected ts %v, got %v", at, env.Ts)
	}
	var data wsKeyPressedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Button != "KEY_PLAY" || data.Action != "Consumer(0x0CD)" {
		t.Errorf("unexpected data: %+v", data)
	}
}

// TestEncodeBroadcast_PowerPulsed tests the pulse envelope fields.
func TestEncodeBroadcast_PowerPulsed(t *testing.T) {
	msgs := encodeBroadcast("htpc", BroadcastPowerPulsed{Desire: DesireOn, RailOn: false, At: time.Now()})

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	env := decodeEnvelope(t, msgs[0].Payload)
	if env.Type != "power_pulsed" {
		t.Errorf("expected type power_pulsed, got %q", env.Type)
	}
	var data wsPowerPulseData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Desire != "on" || data.RailOn {
		t.Errorf("unexpected data: %+v", data)
	}
}

// TestEncodeBroadcast_RailState tests that rail changes also refresh the
// retained power topic.
func TestEncodeBroadcast_RailState(t *testing.T) {
	msgs := encodeBroadcast("htpc", BroadcastRailState{On: true, At: time.Now()})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if env := decodeEnvelope(t, msgs[0].Payload); env.Type != "power_state" {
		t.Errorf("expected type power_state, got %q", env.Type)
	}
	if msgs[1].Topic != "htpc/power" || !msgs[1].Retained || string(msgs[1].Payload) != "on" {
		t.Errorf("unexpected retained power message: %+v", msgs[1])
	}

	msgs = encodeBroadcast("htpc", BroadcastRailState{On: false, At: time.Now()})
	if len(msgs) != 2 || string(msgs[1].Payload) != "off" {
		t.Fatalf("expected retained off payload, got %+v", msgs)
	}
}

// TestEncodeBroadcast_ZeroTimeStamped tests that a missing timestamp is
// filled in rather than omitted.
func TestEncodeBroadcast_ZeroTimeStamped(t *testing.T) {
	msgs := encodeBroadcast("htpc", BroadcastKeyReleased{Button: "KEY_PLAY"})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	env := decodeEnvelope(t, msgs[0].Payload)
	if env.Ts == nil || env.Ts.IsZero() {
		t.Fatalf("expected a stamped envelope, got %+v", env.Ts)
	}
	if time.Since(*env.Ts) > time.Minute {
		t.Errorf("stamp not current: %v", env.Ts)
	}
}

type stubBroadcast struct{}

func (stubBroadcast) broadcastMarker() {}

// TestEncodeBroadcast_UnknownDropped tests that unknown broadcast types
// produce no messages.
func TestEncodeBroadcast_UnknownDropped(t *testing.T) {
	if msgs := encodeBroadcast("htpc", stubBroadcast{}); msgs != nil {
		t.Fatalf("expected no messages, got %+v", msgs)
	}
}
