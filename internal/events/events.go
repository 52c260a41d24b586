// Package events publishes one CloudEvent per completed API request to the
// configured sinks. With no sink configured the publisher does nothing.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	ce "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"atlas/agents/internal/config"
)

const publishTimeout = 5 * time.Second

// Outcome describes a finished request. It never carries prompts, images or credentials.
type Outcome struct {
	Service   string
	Operation string
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
}

type outcomeData struct {
	Service    string `json:"service"`
	Operation  string `json:"operation"`
	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

type sink interface {
	name() string
	send(ctx context.Context, ev ce.Event) error
	close()
}

type Publisher struct {
	source  string
	sinks   []sink
	timeout time.Duration
	wg      sync.WaitGroup
}

// New connects the sinks named in cfg. A sink that cannot be set up is
// logged and skipped; the service keeps running without it.
func New(cfg config.Events, service string) *Publisher {
	p := &Publisher{source: "agents/" + service, timeout: publishTimeout}

	if cfg.SinkURL != "" {
		s, err := newHTTPSink(cfg.SinkURL)
		if err != nil {
			klog.Warningf("events: cloudevents sink disabled: %v", err)
		} else {
			p.sinks = append(p.sinks, s)
		}
	}
	if cfg.NATSURL != "" {
		s, err := newNATSSink(cfg.NATSURL, cfg.NATSSubject, "agents-"+service)
		if err != nil {
			klog.Warningf("events: cannot connect to nats: %v", err)
		} else {
			klog.InfoS("events: connected to nats", "subject", cfg.NATSSubject)
			p.sinks = append(p.sinks, s)
		}
	}
	return p
}

func (p *Publisher) Enabled() bool { return len(p.sinks) > 0 }

// Publish sends o to every sink in the background.
func (p *Publisher) Publish(o Outcome) {
	if !p.Enabled() {
		return
	}
	ev, err := p.event(o)
	if err != nil {
		klog.ErrorS(err, "events: build event", "service", o.Service)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		for _, s := range p.sinks {
			if err := s.send(ctx, ev); err != nil {
				klog.ErrorS(err, "events: publish failed", "sink", s.name(), "type", ev.Type())
			}
		}
	}()
}

func (p *Publisher) event(o Outcome) (ce.Event, error) {
	ev := ce.NewEvent()
	ev.SetID(uuid.NewString())
	ev.SetSource(p.source)
	ev.SetType(fmt.Sprintf("agents.%s.%s", o.Service, o.Operation))
	ev.SetTime(time.Now())
	err := ev.SetData(ce.ApplicationJSON, outcomeData{
		Service:    o.Service,
		Operation:  o.Operation,
		RequestID:  o.RequestID,
		Method:     o.Method,
		Path:       o.Path,
		Status:     o.Status,
		DurationMS: o.Duration.Milliseconds(),
	})
	if err != nil {
		return ev, fmt.Errorf("set event data: %w", err)
	}
	return ev, nil
}

// Close waits for in-flight publishes and releases the sinks.
func (p *Publisher) Close() {
	p.wg.Wait()
	for _, s := range p.sinks {
		s.close()
	}
}
