package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBridge subscribes to run subjects and pushes messages into the Hub.
type NATSBridge struct {
	conn   *nats.Conn
	hub    *Hub
	logger zerolog.Logger
}

func NewNATSBridge(natsURL string, hub *Hub, logger zerolog.Logger) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL, nats.Name("blueprint-realtime"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, logger: logger}, nil
}

// Subscribe listens for blueprint.run.<runId>.<event>.
func (b *NATSBridge) Subscribe() error {
	subject := subjectPrefix + "*.*"
	_, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		runID, data, err := envelope(msg.Subject, msg.Data)
		if err != nil {
			b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping NATS message")
			return
		}
		b.hub.Broadcast(runID, data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}

	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

// envelope wraps a raw run event into the message sent to websocket clients.
func envelope(subject string, data []byte) (string, []byte, error) {
	runID, event, err := parseRunSubject(subject)
	if err != nil {
		return "", nil, err
	}
	if !json.Valid(data) {
		return "", nil, fmt.Errorf("payload is not JSON")
	}

	out, err := json.Marshal(outgoingMsg{
		Type:    "run." + event,
		RunID:   runID,
		Payload: json.RawMessage(data),
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return runID, out, nil
}

// parseRunSubject extracts runID and event from "blueprint.run.<runID>.<event>"
func parseRunSubject(subject string) (string, string, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 || parts[0]+"."+parts[1]+"." != subjectPrefix {
		return "", "", fmt.Errorf("unexpected subject %q", subject)
	}
	if parts[2] == "" {
		return "", "", fmt.Errorf("empty run id in %q", subject)
	}
	switch parts[3] {
	case eventLog, eventStatus:
		return parts[2], parts[3], nil
	default:
		return "", "", fmt.Errorf("unknown run event %q", parts[3])
	}
}
