package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// lircd broadcast source
// ============================================================================
// When lircd owns the receiver, it broadcasts every decoded press on its
// unix socket as a text line:
//
//   <code> <repeat> <button> <remote>
//
// with code and repeat in hex. Replies to commands from other clients
// arrive as BEGIN..END blocks, which a passive listener must skip.
//
// lircd has already done protocol decode and toggle handling, so this
// source maps button names straight onto key-table entries and synthesizes
// the canonical command value for the engine. Repeat lines are forwarded
// as-is: the hold machine owns repeat suppression.
// ============================================================================

// lircdReconnectDelay is the pause before redialing a lost lircd socket.
const lircdReconnectDelay = 2 * time.Second

// LircdSource consumes pre-decoded button events from a lircd socket.
type LircdSource struct {
	socket string
	events chan<- Event
	logger *slog.Logger
}

func NewLircdSource(socket string, events chan<- Event, logger *slog.Logger) *LircdSource {
	return &LircdSource{
		socket: socket,
		events: events,
		logger: logger,
	}
}

// Run dials lircd and forwards button lines until ctx is canceled. A lost
// connection is redialed after a short pause; lircd restarts are routine.
func (s *LircdSource) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		err := s.readOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Info("lircd source stopping (context canceled)")
			return nil
		}
		if err != nil {
			s.logger.Warn("lircd connection lost, retrying", "socket", s.socket, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(lircdReconnectDelay):
		}
	}
}

// readOnce holds one connection open and processes lines until it fails.
func (s *LircdSource) readOnce(ctx context.Context) error {
	conn, err := net.Dial("unix", s.socket)
	if err != nil {
		return fmt.Errorf("dial lircd: %w", err)
	}
	defer conn.Close()

	// Unblock the scanner when ctx is canceled.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	s.logger.Info("lircd source connected", "socket", s.socket)

	scanner := bufio.NewScanner(conn)
	inReply := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Command replies addressed to other clients.
		if line == "BEGIN" {
			inReply = true
			continue
		}
		if inReply {
			if line == "END" {
				inReply = false
			}
			continue
		}

		code, _, button, remote, ok := parseLircdLine(line)
		if !ok {
			s.logger.Debug("unparseable lircd line", "line", line)
			continue
		}

		cmd := lircdCommand(button, code)
		s.logger.Debug("lircd button",
			"button", button,
			"remote", remote,
			"value", fmt.Sprintf("0x%08X", cmd.Value))

		if err := s.emit(ctx, FrameEvent{Cmd: cmd, At: time.Now()}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read lircd: %w", err)
	}
	return fmt.Errorf("lircd closed the connection")
}

func (s *LircdSource) emit(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseLircdLine splits one broadcast line into its four fields.
func parseLircdLine(line string) (code uint64, repeat uint64, button, remote string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return 0, 0, "", "", false
	}

	code, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return 0, 0, "", "", false
	}
	repeat, err = strconv.ParseUint(fields[1], 16, 32)
	if err != nil {
		return 0, 0, "", "", false
	}

	return code, repeat, fields[2], fields[3], true
}

// lircdCommand maps a button name onto the engine's canonical command
// value. A name miss falls back to the low 32 bits of the raw code, which
// still matches the table when the remote's config uses MCE scancodes.
func lircdCommand(button string, code uint64) RemoteCommand {
	switch button {
	case powerOnButton:
		return RemoteCommand{Proto: ProtoLIRCD, Value: powerOnCode}
	case powerOffButton:
		return RemoteCommand{Proto: ProtoLIRCD, Value: powerOffCode}
	}

	if e := lookupButton(keyTable, button); e != nil {
		return RemoteCommand{Proto: ProtoLIRCD, Value: e.Code}
	}

	return RemoteCommand{Proto: ProtoLIRCD, Value: uint32(code)}
}
