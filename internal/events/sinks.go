package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ce "github.com/cloudevents/sdk-go/v2"
	nats "github.com/nats-io/nats.go"
)

type httpSink struct {
	target string
	client ce.Client
}

func newHTTPSink(target string) (*httpSink, error) {
	c, err := ce.NewClientHTTP(ce.WithTarget(target))
	if err != nil {
		return nil, fmt.Errorf("failed to create CloudEvents client: %w", err)
	}
	return &httpSink{target: target, client: c}, nil
}

func (s *httpSink) name() string { return "cloudevents" }

func (s *httpSink) send(ctx context.Context, ev ce.Event) error {
	result := s.client.Send(ctx, ev)
	if ce.IsUndelivered(result) {
		return fmt.Errorf("failed to deliver event: %w", result)
	}
	if !ce.IsACK(result) {
		return fmt.Errorf("event rejected by %s: %w", s.target, result)
	}
	return nil
}

func (s *httpSink) close() {}

// natsSink publishes the structured JSON form of the event.
type natsSink struct {
	conn    *nats.Conn
	subject string
}

func newNATSSink(url, subject, clientName string) (*natsSink, error) {
	nc, err := nats.Connect(url, nats.Name(clientName), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	return &natsSink{conn: nc, subject: subject}, nil
}

func (s *natsSink) name() string { return "nats" }

func (s *natsSink) send(_ context.Context, ev ce.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.conn.Publish(s.subject, b)
}

func (s *natsSink) close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}
