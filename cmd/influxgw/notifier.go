package main

import (
	"context"

	"github.com/nerrad567/influxgw/internal/hosts"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
	"github.com/nerrad567/influxgw/internal/infrastructure/mqtt"
)

// notifierBuffer is the number of transitions queued before new ones are dropped.
const notifierBuffer = 64

// statusPublisher is the part of mqtt.Client the notifier uses.
type statusPublisher interface {
	PublishHostStatus(p mqtt.HostStatusPayload) error
}

// statusNotifier forwards host transitions to MQTT on its own goroutine so
// registry callbacks never wait on the broker.
type statusNotifier struct {
	publisher statusPublisher
	log       *logging.Logger
	events    chan hosts.Transition
}

// newStatusNotifier returns a notifier. A nil publisher only logs transitions.
func newStatusNotifier(publisher statusPublisher, log *logging.Logger) *statusNotifier {
	return &statusNotifier{
		publisher: publisher,
		log:       log,
		events:    make(chan hosts.Transition, notifierBuffer),
	}
}

// Notify queues t. It never blocks.
func (n *statusNotifier) Notify(t hosts.Transition) {
	select {
	case n.events <- t:
	default:
		n.log.Warn("host status queue full, dropping transition",
			"host", t.Host.Key(),
			"status", t.To.String(),
		)
	}
}

// Run publishes queued transitions until ctx is cancelled, then drains
// whatever is already queued.
func (n *statusNotifier) Run(ctx context.Context) {
	for {
		select {
		case t := <-n.events:
			n.handle(t)
		case <-ctx.Done():
			for {
				select {
				case t := <-n.events:
					n.handle(t)
				default:
					return
				}
			}
		}
	}
}

func (n *statusNotifier) handle(t hosts.Transition) {
	n.log.Debug("host transition",
		"host", t.Host.Key(),
		"from", t.From.String(),
		"to", t.To.String(),
		"reason", string(t.Reason),
	)

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishHostStatus(payloadFor(t)); err != nil {
		n.log.Warn("publishing host status failed", "host", t.Host.Key(), "error", err)
	}
}

// payloadFor maps a registry transition to its MQTT status message.
func payloadFor(t hosts.Transition) mqtt.HostStatusPayload {
	p := mqtt.HostStatusPayload{
		Host:      t.Host.Name,
		Port:      t.Host.Port,
		Index:     t.Host.Index,
		Status:    t.To.String(),
		Previous:  t.From.String(),
		Reason:    string(t.Reason),
		Timestamp: t.At,
	}
	if t.To == hosts.StateDisabled {
		since := t.At
		p.Since = &since
	}
	return p
}
