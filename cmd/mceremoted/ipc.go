package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Debug Channel
// ============================================================================
// The IPC server is the runtime debug/operator channel. It accepts
// single-character commands, one per line:
//
//   Q - quiet:   log level to warn
//   V - verbose: log level to info
//   D - dump:    log level to debug (includes per-pulse decoder output)
//   ? - status:  one-shot engine status snapshot
//
// Verbosity commands change diagnostics only; dispatch behavior never
// depends on them. The status query reads the tracker snapshot, never the
// engine state itself.
//
// Protocol: commands in, line-delimited JSON out
//   - Server responds: {"status": "ok", "data": {...}} or
//     {"status": "error", "error": "msg"}
// ============================================================================

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Data   any    `json:"data,omitempty"`  // payload if status == "ok"
	Error  string `json:"error,omitempty"` // error message if status == "error"
}

// ipcStatusPayload is the `?` response body.
type ipcStatusPayload struct {
	StatusSnapshot
	Verbosity string `json:"verbosity"`
	Uptime    string `json:"uptime"`
}

// runIPCServer binds the Unix domain socket and starts serving in the
// background. Binding errors are returned synchronously so startup can fail
// fast; the accept loop itself runs until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, tracker *StatusTracker, levelVar *slog.LevelVar, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	// Make socket accessible (consider security implications in production)
	if err := os.Chmod(socketPath, 0666); err != nil {
		listener.Close()
		os.Remove(socketPath)
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	go acceptIPCLoop(ctx, listener, socketPath, tracker, levelVar, logger)
	return nil
}

func acceptIPCLoop(ctx context.Context, listener net.Listener, socketPath string, tracker *StatusTracker, levelVar *slog.LevelVar, logger *slog.Logger) {
	defer listener.Close()
	defer os.Remove(socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Exit cleanly on shutdown/close.
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return
			}
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, tracker, levelVar, logger)
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(conn net.Conn, tracker *StatusTracker, levelVar *slog.LevelVar, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection opened")

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("IPC received", "line", line)

		response := handleIPCCommand(line, tracker, levelVar, logger)
		if encErr := encoder.Encode(response); encErr != nil {
			logger.Error("IPC failed to send response", "error", encErr)
			return
		}
	}

	logger.Debug("IPC connection closed")
}

// handleIPCCommand executes one debug-channel command.
func handleIPCCommand(line string, tracker *StatusTracker, levelVar *slog.LevelVar, logger *slog.Logger) IPCResponse {
	switch strings.ToUpper(line) {
	case "Q":
		levelVar.Set(slog.LevelWarn)
		logger.Warn("verbosity changed", "verbosity", "quiet")
		return verbosityResponse(levelVar)

	case "V":
		levelVar.Set(slog.LevelInfo)
		logger.Info("verbosity changed", "verbosity", "verbose")
		return verbosityResponse(levelVar)

	case "D":
		levelVar.Set(slog.LevelDebug)
		logger.Info("verbosity changed", "verbosity", "debug")
		return verbosityResponse(levelVar)

	case "?":
		snap := tracker.Snapshot()
		return IPCResponse{
			Status: "ok",
			Data: ipcStatusPayload{
				StatusSnapshot: snap,
				Verbosity:      levelName(levelVar.Level()),
				Uptime:         snap.Uptime().Round(timeRounding).String(),
			},
		}

	default:
		return IPCResponse{
			Status: "error",
			Error:  fmt.Sprintf("unknown command %q (expected Q, V, D or ?)", line),
		}
	}
}

func verbosityResponse(levelVar *slog.LevelVar) IPCResponse {
	return IPCResponse{
		Status: "ok",
		Data:   map[string]string{"verbosity": levelName(levelVar.Level())},
	}
}
