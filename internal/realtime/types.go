package realtime

import (
	"fmt"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
)

// Topic is a hub broadcast channel
// ⭐ SSOT: topic and event names exposed to subscribers
type Topic string

const (
	TopicInstruments   Topic = "instruments"
	TopicSignals       Topic = "signals"
	TopicNotifications Topic = "notifications"
)

// AllTopics lists every topic in a fixed order
var AllTopics = []Topic{TopicInstruments, TopicSignals, TopicNotifications}

// ParseTopic validates a topic name
func ParseTopic(s string) (Topic, error) {
	for _, t := range AllTopics {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// EventType names an incremental change
type EventType string

const (
	EventInstrumentUpdated   EventType = "instrument.updated"
	EventSignalActivated     EventType = "signal.activated"
	EventNotificationCreated EventType = "notification.created"
	EventNotificationRead    EventType = "notification.read"
)

// Event is one incremental change. Seq is hub-wide and strictly increasing.
type Event struct {
	Seq       uint64      `json:"seq"`
	Topic     Topic       `json:"topic"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Snapshot is the current state handed to a new subscriber.
// Every event delivered to that subscriber has Seq greater than Snapshot.Seq.
type Snapshot struct {
	Seq           uint64                   `json:"seq"`
	Instruments   []contracts.Instrument   `json:"instruments,omitempty"`
	Signals       []contracts.Signal       `json:"signals,omitempty"`
	Notifications []contracts.Notification `json:"notifications,omitempty"`
}
