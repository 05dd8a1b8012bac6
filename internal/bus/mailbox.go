package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrNoListener = errors.New("receiving end does not exist")

// Handler processes one message and optionally acknowledges it.
type Handler func(ctx context.Context, m Message) (Ack, error)

// Mailbox is the receiving end of one context (a page or the background
// runtime). At most one listener is attached; attaching it signals
// readiness to senders waiting in WaitReady.
type Mailbox struct {
	mu      sync.Mutex
	handler Handler
	ready   chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{})}
}

// Listen attaches h. It reports false, leaving the current listener in
// place, when one is already attached.
func (m *Mailbox) Listen(h Handler) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler != nil {
		return false
	}
	m.handler = h
	close(m.ready)
	return true
}

func (m *Mailbox) HasListener() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler != nil
}

// WaitReady blocks until a listener is attached or ctx is done.
func (m *Mailbox) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset detaches the listener, as a page reload does.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler != nil {
		m.handler = nil
		m.ready = make(chan struct{})
	}
}

// Send delivers msg to the listener. The message crosses the boundary in
// its wire form, so the listener never shares memory with the sender.
func (m *Mailbox) Send(ctx context.Context, msg Message) (Ack, error) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		return Ack{}, ErrNoListener
	}
	data, err := Encode(msg)
	if err != nil {
		return Ack{}, err
	}
	copied, err := Decode(data)
	if err != nil {
		return Ack{}, err
	}
	return h(ctx, copied)
}
