package messaging

import (
	"time"
)

// Event types published over the broker
const (
	SessionCreated    = "session.created"
	TrainingEpisode   = "training.episode"
	TrainingCompleted = "training.completed"
	TrainingFailed    = "training.failed"
	PlaybackCompleted = "playback.completed"
	SessionsReset     = "sessions.reset"
)

// Message is a lifecycle event about a session
type Message struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"` // empty for process-wide events
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Broker fans events out to subscribers
type Broker interface {
	// Publish delivers a message to every subscriber
	Publish(msg Message) error
	// Subscribe registers a subscriber channel under an id
	Subscribe(subscriberID string, ch chan<- Message) error
	// Unsubscribe removes a subscription
	Unsubscribe(subscriberID string) error
}
