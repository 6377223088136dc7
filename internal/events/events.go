// Package events publishes ticket lifecycle events.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/Phantawat/car-parking/internal/models"
)

// Event types
const (
	TicketOpened = "ticket_opened"
	TicketClosed = "ticket_closed"
)

// Event reports a ticket transition together with the level counter after it.
type Event struct {
	Type            string         `json:"type"`
	Ticket          *models.Ticket `json:"ticket"`
	AvailableSpaces int            `json:"available_spaces"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// Publisher delivers events. Callers log publish errors and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster is the part of the websocket hub used for events.
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// HubPublisher pushes events to connected websocket clients.
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, e Event) error {
	p.hub.BroadcastMessage(e.Type, e)
	return nil
}
