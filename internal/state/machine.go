package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	"github.com/Phantawat/car-parking/internal/models"
)

// Ticket states
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// EventClose closes a ticket. It is the only transition.
const EventClose = "close"

// TicketMachine is the lifecycle of one ticket. Closed is terminal.
type TicketMachine struct {
	mu       sync.Mutex
	ticketID string
	fsm      *fsm.FSM
	onChange func(ticketID, from, to string)
}

// NewTicketMachine builds a machine in the state the ticket is persisted in.
func NewTicketMachine(ticket *models.Ticket, onChange func(ticketID, from, to string)) *TicketMachine {
	initial := StateOpen
	if !ticket.IsOpen() {
		initial = StateClosed
	}

	m := &TicketMachine{ticketID: ticket.ID, onChange: onChange}
	m.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventClose, Src: []string{StateOpen}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				if m.onChange != nil && e.Src != e.Dst {
					m.onChange(m.ticketID, e.Src, e.Dst)
				}
			},
		},
	)
	return m
}

// Current returns the current state.
func (m *TicketMachine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.Current()
}

// CanClose reports whether the ticket may still be closed.
func (m *TicketMachine) CanClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.Can(EventClose)
}

// Close moves the ticket to closed. A closed ticket yields ErrAlreadyClosed.
func (m *TicketMachine) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(ctx, EventClose); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return models.ErrAlreadyClosed
		}
		return fmt.Errorf("trigger event %s: %w", EventClose, err)
	}
	return nil
}
