package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// ============================================================================
// mcectl - Command-line debug channel client
// ============================================================================
// This tool talks to the mceremoted daemon over its unix socket.
//
// Usage:
//   mcectl quiet
//   mcectl verbose
//   mcectl debug
//   mcectl status
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/mceremoted.sock)
// ============================================================================

// IPCResponse represents the daemon's response
// (duplicated from the daemon package for a standalone binary)
type IPCResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/mceremoted.sock"

	// Parse arguments
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Parse command into the daemon's single-letter wire form
	var cmd string

	switch args[0] {
	case "quiet", "q":
		cmd = "Q"

	case "verbose", "v":
		cmd = "V"

	case "debug", "d":
		cmd = "D"

	case "status", "?":
		cmd = "?"

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	resp, err := sendCommand(socketPath, cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(resp.Data) > 0 {
		var pretty map[string]any
		if err := json.Unmarshal(resp.Data, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
			return
		}
		fmt.Println(string(resp.Data))
		return
	}

	fmt.Println("ok")
}

func sendCommand(socketPath, cmd string) (IPCResponse, error) {
	var response IPCResponse

	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return response, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Send command (line-delimited)
	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		return response, fmt.Errorf("send command: %w", err)
	}

	// Read response
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return response, fmt.Errorf("decode response: %w", err)
	}

	// Check response status
	if response.Status == "error" {
		return response, fmt.Errorf("daemon error: %s", response.Error)
	}

	return response, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mcectl - Control the mceremoted daemon over its debug socket

Usage:
  mcectl [options] <command>

Options:
  -socket PATH    Unix domain socket path (default: /tmp/mceremoted.sock)

Commands:
  quiet, q           Warnings and errors only
  verbose, v         Per-dispatch logging
  debug, d           Raw frame and pulse logging
  status, ?          Print engine status (last code, rail state, counters)
  help, -h, --help   Show this help message

Examples:
  mcectl debug
  mcectl status
  mcectl -socket /var/run/mceremoted.sock quiet
`)
}
