package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	eventsv1 "payparty/contracts/gen/events/v1"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const DefaultSubjectPrefix = "events"

// EventSubject maps an event type onto the JetStream subject it is published
// under.
func EventSubject(prefix string, eventType string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + strings.TrimSpace(eventType)
}

type Client struct {
	Conn      *nats.Conn
	JetStream jetstream.JetStream
}

func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("payparty"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to build jetStream client: %w", err)
	}
	return &Client{Conn: conn, JetStream: js}, nil
}

func (c *Client) Close() {
	if c == nil || c.Conn == nil {
		return
	}
	c.JetStream.CleanupPublisher()
	c.Conn.Close()
}

// JetStream publishes party events to a stream that captures every subject
// under the prefix. Envelope ids double as message ids, so a relay retry after
// a lost ack is deduplicated by the server.
type JetStream struct {
	js     jetstream.JetStream
	prefix string
	logger *slog.Logger
}

func NewJetStream(ctx context.Context, js jetstream.JetStream, stream string, prefix string, logger *slog.Logger) (*JetStream, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultSubjectPrefix
	}
	if strings.TrimSpace(stream) == "" {
		return nil, errors.New("jetstream stream name is required")
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: StreamSubjects(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
	}
	return &JetStream{js: js, prefix: prefix, logger: logger}, nil
}

// StreamSubjects lists the subjects a party event stream must capture.
func StreamSubjects(prefix string) []string {
	subjects := make([]string, 0, len(eventsv1.PartyEventTypes))
	for _, eventType := range eventsv1.PartyEventTypes {
		subjects = append(subjects, EventSubject(prefix, eventType))
	}
	return subjects
}

func (p *JetStream) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventID, err)
	}
	subject := EventSubject(p.prefix, topic)
	ack, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(event.EventID))
	if err != nil {
		p.logger.Error("jetstream publish failed",
			"event", "jetstream_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"subject", subject,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.logger.Debug("event published",
		"event", "jetstream_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", subject,
		"event_id", event.EventID,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}
