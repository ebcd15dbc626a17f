package messaging

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// SimpleBroker implements the Broker interface
// subscribers is a map where keys are subscriber IDs and values are channels for receiving messages
type SimpleBroker struct {
	subscribers map[string]chan<- Message
	mu          sync.RWMutex
}

var _ Broker = (*SimpleBroker)(nil)

// NewBroker creates a new message broker
func NewBroker() *SimpleBroker {
	return &SimpleBroker{
		subscribers: make(map[string]chan<- Message),
	}
}

// Publish sends a message to every subscriber. Delivery never blocks: a
// subscriber whose channel is full misses the message, and the skipped
// subscribers are reported in the returned error.
func (b *SimpleBroker) Publish(msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	var errs []error
	for id, ch := range b.subscribers {
		// Non-blocking send
		select {
		case ch <- msg:
		default:
			errs = append(errs, fmt.Errorf("subscriber %s's channel is full", id))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a subscriber to receive messages
func (b *SimpleBroker) Subscribe(subscriberID string, ch chan<- Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[subscriberID]; exists {
		return fmt.Errorf("subscriber %s is already subscribed", subscriberID)
	}

	b.subscribers[subscriberID] = ch
	return nil
}

// Unsubscribe removes a subscription
func (b *SimpleBroker) Unsubscribe(subscriberID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[subscriberID]; !exists {
		return fmt.Errorf("subscriber %s is not subscribed", subscriberID)
	}

	delete(b.subscribers, subscriberID)
	return nil
}

// Len returns the number of subscribers
func (b *SimpleBroker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *SimpleBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- Message)
}
