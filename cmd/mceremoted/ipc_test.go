package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestHandleIPCCommand_Verbosity tests the Q/V/D commands against the
// shared level var.
func TestHandleIPCCommand_Verbosity(t *testing.T) {
	cases := []struct {
		line  string
		level slog.Level
		name  string
	}{
		{"Q", slog.LevelWarn, "quiet"},
		{"V", slog.LevelInfo, "verbose"},
		{"D", slog.LevelDebug, "debug"},
		{"q", slog.LevelWarn, "quiet"}, // case-insensitive
	}

	for _, tc := range cases {
		levelVar := new(slog.LevelVar)
		levelVar.Set(slog.LevelInfo)

		resp := handleIPCCommand(tc.line, NewStatusTracker(time.Now()), levelVar, testLogger())

		if resp.Status != "ok" {
			t.Errorf("%q: expected ok, got %+v", tc.line, resp)
			continue
		}
		if levelVar.Level() != tc.level {
			t.Errorf("%q: expected level %v, got %v", tc.line, tc.level, levelVar.Level())
		}
		data, ok := resp.Data.(map[string]string)
		if !ok || data["verbosity"] != tc.name {
			t.Errorf("%q: expected verbosity %q, got %+v", tc.line, tc.name, resp.Data)
		}
	}
}

// TestHandleIPCCommand_Status tests the ? snapshot query.
func TestHandleIPCCommand_Status(t *testing.T) {
	tracker := NewStatusTracker(time.Now().Add(-90 * time.Second))
	tracker.Update(&EngineState{
		LastSeen: LastSeenState{Value: 0x800F0416, Class: "KEY_PLAY", At: time.Now()},
		Rail:     RailState{On: true, Known: true, At: time.Now()},
		Counters: Counters{Frames: 7, Presses: 3, Releases: 3},
	})
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)

	resp := handleIPCCommand("?", tracker, levelVar, testLogger())
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %+v", resp)
	}
	payload, ok := resp.Data.(ipcStatusPayload)
	if !ok {
		t.Fatalf("expected status payload, got %T", resp.Data)
	}
	if payload.LastValueHex != "0x800F0416" || payload.LastClass != "KEY_PLAY" {
		t.Errorf("unexpected last seen: %s %s", payload.LastValueHex, payload.LastClass)
	}
	if !payload.RailOn || !payload.RailKnown {
		t.Errorf("unexpected rail view: %+v", payload.StatusSnapshot)
	}
	if payload.Counters.Frames != 7 {
		t.Errorf("unexpected counters: %+v", payload.Counters)
	}
	if payload.Verbosity != "debug" {
		t.Errorf("expected verbosity debug, got %q", payload.Verbosity)
	}
	if payload.Uptime != "1m30s" {
		t.Errorf("expected uptime 1m30s, got %q", payload.Uptime)
	}
}

// TestHandleIPCCommand_StatusDoesNotChangeVerbosity tests that the status
// query is read-only.
func TestHandleIPCCommand_StatusDoesNotChangeVerbosity(t *testing.T) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)

	handleIPCCommand("?", NewStatusTracker(time.Now()), levelVar, testLogger())

	if levelVar.Level() != slog.LevelWarn {
		t.Errorf("status query changed the level to %v", levelVar.Level())
	}
}

// TestHandleIPCCommand_Unknown tests the error response for junk input.
func TestHandleIPCCommand_Unknown(t *testing.T) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	resp := handleIPCCommand("X", NewStatusTracker(time.Now()), levelVar, testLogger())

	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("expected an error response, got %+v", resp)
	}
	if levelVar.Level() != slog.LevelInfo {
		t.Errorf("unknown command changed the level to %v", levelVar.Level())
	}
}

// TestRunIPCServer_SocketRoundTrip tests the server over a real Unix
// socket: bind, query, change verbosity, shut down.
func TestRunIPCServer_SocketRoundTrip(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "mceremoted.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewStatusTracker(time.Now())
	tracker.Update(&EngineState{LastSeen: LastSeenState{Value: 0x800F0419, Class: "KEY_STOP"}})
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	if err := runIPCServer(ctx, sock, tracker, levelVar, testLogger()); err != nil {
		t.Fatalf("failed to start IPC server: %v", err)
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("failed to dial socket: %v", err)
	}
	defer conn.Close()
	dec := json.NewDecoder(conn)

	if _, err := conn.Write([]byte("?\n")); err != nil {
		t.Fatalf("failed to send status query: %v", err)
	}
	var resp IPCResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %+v", resp)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object payload, got %T", resp.Data)
	}
	if data["last_value_hex"] != "0x800F0419" || data["last_class"] != "KEY_STOP" {
		t.Errorf("unexpected status payload: %+v", data)
	}

	// Same connection, second command.
	if _, err := conn.Write([]byte("D\n")); err != nil {
		t.Fatalf("failed to send verbosity command: %v", err)
	}
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %+v", resp)
	}
	if levelVar.Level() != slog.LevelDebug {
		t.Errorf("expected level debug after D, got %v", levelVar.Level())
	}

	// Shutdown removes the socket file.
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(sock); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("socket file not removed on shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestRunIPCServer_BadPath tests the synchronous bind error.
func TestRunIPCServer_BadPath(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "no-such-dir", "mceremoted.sock")
	levelVar := new(slog.LevelVar)

	err := runIPCServer(context.Background(), sock, NewStatusTracker(time.Now()), levelVar, testLogger())
	if err == nil {
		t.Fatal("expected a bind error for a missing directory")
	}
}
