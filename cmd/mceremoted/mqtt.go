package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// ============================================================================
// MQTT event mirror
// ============================================================================
// Optional: when a broker is configured, every reducer broadcast is
// mirrored as a JSON envelope on <prefix>/events, the sensed power state is
// kept retained on <prefix>/power, and <prefix>/status carries an
// online/offline availability flag backed by a last-will message.
//
// Publishing is best-effort at QoS 0. A dead broker never stalls dispatch;
// the publisher runs on its own goroutine fed by the broadcast fan-out.
// ============================================================================

// mqttMsg is one formatted message ready to publish.
type mqttMsg struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// encodeBroadcast formats one broadcast into its MQTT messages. The event
// envelope matches the websocket wire format; rail changes additionally
// refresh the retained power-state topic.
func encodeBroadcast(prefix string, b StateBroadcast) []mqttMsg {
	ev, ok := convertBroadcast(b)
	if !ok {
		return nil
	}

	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	payload, err := json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
	if err != nil {
		return nil
	}

	msgs := []mqttMsg{{Topic: prefix + "/events", Payload: payload}}

	if rail, isRail := b.(BroadcastRailState); isRail {
		state := "off"
		if rail.On {
			state = "on"
		}
		msgs = append(msgs, mqttMsg{Topic: prefix + "/power", Payload: []byte(state), Retained: true})
	}

	return msgs
}

// MQTTPublisher mirrors broadcasts to an MQTT broker.
type MQTTPublisher struct {
	client paho.Client
	prefix string
	avail  string
	logger *slog.Logger
}

// NewMQTTPublisher connects to the configured broker. The availability
// topic goes "online" on connect and "offline" via the broker's last-will
// when the daemon dies uncleanly.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) (*MQTTPublisher, error) {
	avail := cfg.TopicPrefix + "/status"

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	opts.SetWill(avail, "offline", 0, true)
	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
		c.Publish(avail, 0, true, "online")
	})
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{
		client: client,
		prefix: cfg.TopicPrefix,
		avail:  avail,
		logger: logger,
	}, nil
}

// Run consumes broadcasts until ctx is canceled or the source closes.
func (p *MQTTPublisher) Run(ctx context.Context, src <-chan StateBroadcast) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-src:
			if !ok {
				return
			}
			p.publishBroadcast(b)
		}
	}
}

func (p *MQTTPublisher) publishBroadcast(b StateBroadcast) {
	for _, m := range encodeBroadcast(p.prefix, b) {
		// QoS 0 (at-most-once); lost notifications are acceptable.
		token := p.client.Publish(m.Topic, 0, m.Retained, m.Payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.logger.Warn("mqtt publish timeout", "topic", m.Topic)
			continue
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("mqtt publish failed", "topic", m.Topic, "error", err)
		}
	}
}

// Close marks the daemon offline and disconnects. The explicit offline
// publish is needed because a clean disconnect does not fire the last-will.
func (p *MQTTPublisher) Close() error {
	token := p.client.Publish(p.avail, 0, true, "offline")
	token.WaitTimeout(2 * time.Second)
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
