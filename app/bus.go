package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// BusMessageType represents the type of lifecycle bus message.
type BusMessageType string

const (
	BusMessageAccepted        BusMessageType = "accepted"
	BusMessageStatusChanged   BusMessageType = "status_changed"
	BusMessageDeliveryAttempt BusMessageType = "delivery_attempt"
)

// BusMessage is a message published to the LifecycleBus.
type BusMessage struct {
	ID        uint64         `json:"id"`
	Type      BusMessageType `json:"type"`
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`

	// Delivery-attempt fields (only set for delivery_attempt messages)
	Endpoint           string `json:"endpoint,omitempty"`
	AttemptStatus      string `json:"attempt_status,omitempty"`
	ResponseStatusCode int    `json:"response_status_code,omitempty"`
}

const subscriberBufferSize = 64

// LifecycleBus is an in-memory pub/sub bus broadcasting event lifecycle
// updates to in-process consumers.
type LifecycleBus struct {
	nextID      atomic.Uint64
	mu          sync.RWMutex
	subscribers map[chan BusMessage]struct{}
}

// NewLifecycleBus creates a new LifecycleBus.
func NewLifecycleBus() *LifecycleBus {
	return &LifecycleBus{
		subscribers: make(map[chan BusMessage]struct{}),
	}
}

// Subscribe returns a buffered channel that receives bus messages and an
// unsubscribe function. The caller must call unsubscribe when done.
func (b *LifecycleBus) Subscribe() (<-chan BusMessage, func()) {
	ch := make(chan BusMessage, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subscribers, ch)
		b.mu.Unlock()
	}

	return ch, unsubscribe
}

// Publish sends a message to all subscribers with a non-blocking send.
// Slow consumers that have full buffers will miss messages.
func (b *LifecycleBus) Publish(msg BusMessage) {
	msg.ID = b.nextID.Add(1)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message for slow consumer
		}
	}
}
