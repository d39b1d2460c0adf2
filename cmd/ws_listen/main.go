package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ws_listen tails the mceremoted event stream. Useful when checking what a
// remote actually sends without watching daemon logs.

// envelope matches the daemon's outbound wire format.
type envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8989/ws", "mceremoted websocket URL")
		raw   = flag.Bool("raw", false, "Print raw JSON instead of formatted lines")
	)
	flag.Parse()

	// Parse websocket URL
	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	// Connect to websocket
	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// The server pings us; the read deadline is refreshed by any traffic.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Message reading loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			switch messageType {
			case websocket.TextMessage:
				handleTextMessage(message, *raw)
			case websocket.BinaryMessage:
				fmt.Printf("[BINARY] %d bytes\n", len(message))
			case websocket.CloseMessage:
				fmt.Printf("[CLOSE]\n")
				return
			}
		}
	}()

	// Wait for shutdown signal or connection close
	select {
	case <-sigc:
		log.Printf("shutting down...")
		// Clean close
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleTextMessage prints one event from the daemon.
func handleTextMessage(message []byte, raw bool) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	if raw {
		fmt.Printf("%s\n", string(message))
		return
	}

	ts := ""
	if env.Ts != nil {
		ts = env.Ts.Format("15:04:05.000") + " "
	}

	switch env.Type {
	case "key_pressed":
		var d struct {
			Button string `json:"button"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal(env.Data, &d); err == nil {
			fmt.Printf("%s[PRESS] %s (%s)\n", ts, d.Button, d.Action)
			return
		}

	case "key_released":
		var d struct {
			Button string `json:"button"`
		}
		if err := json.Unmarshal(env.Data, &d); err == nil {
			fmt.Printf("%s[RELEASE] %s\n", ts, d.Button)
			return
		}

	case "power_pulsed":
		var d struct {
			Desire string `json:"desire"`
			RailOn bool   `json:"rail_on"`
		}
		if err := json.Unmarshal(env.Data, &d); err == nil {
			fmt.Printf("%s[POWER] pulsed (%s, rail_on=%v)\n", ts, d.Desire, d.RailOn)
			return
		}

	case "power_redundant":
		var d struct {
			Desire string `json:"desire"`
			RailOn bool   `json:"rail_on"`
		}
		if err := json.Unmarshal(env.Data, &d); err == nil {
			fmt.Printf("%s[POWER] suppressed (%s, rail_on=%v)\n", ts, d.Desire, d.RailOn)
			return
		}

	case "power_state":
		var d struct {
			On bool `json:"on"`
		}
		if err := json.Unmarshal(env.Data, &d); err == nil {
			state := "OFF"
			if d.On {
				state = "ON"
			}
			fmt.Printf("%s[RAIL] %s\n", ts, state)
			return
		}

	case "state_init":
		var pretty map[string]any
		if err := json.Unmarshal(env.Data, &pretty); err == nil {
			prettyJSON, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("%s[INIT]\n%s\n\n", ts, string(prettyJSON))
			return
		}
	}

	// Pretty print anything unrecognized
	var pretty map[string]any
	if err := json.Unmarshal(message, &pretty); err == nil {
		prettyJSON, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Printf("[EVENT]\n%s\n\n", string(prettyJSON))
		return
	}
	fmt.Printf("[TEXT] %s\n", string(message))
}
