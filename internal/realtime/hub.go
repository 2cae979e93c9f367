package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
	"github.com/wonny/fxpulse/pkg/metrics"
)

// Config holds hub settings
type Config struct {
	BufferSize            int // per-subscriber event buffer
	SnapshotNotifications int // notifications included in a snapshot
}

// Hub mirrors current state and fans events out to subscribers.
// One mutex guards both the mirror and the subscriber set, so a snapshot
// and the registration that follows it are atomic with respect to Publish.
// ⭐ SSOT: subscriber fan-out happens here only
type Hub struct {
	cfg     Config
	logger  *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu            sync.Mutex
	seq           uint64
	nextID        uint64
	instruments   map[string]contracts.Instrument
	signals       map[string]contracts.Signal
	notifications []contracts.Notification // newest first, capped
	subscribers   map[uint64]*Subscription
}

// NewHub creates an empty hub
func NewHub(cfg Config, log *logger.Logger, rec *metrics.Recorder) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.SnapshotNotifications <= 0 {
		cfg.SnapshotNotifications = 50
	}
	return &Hub{
		cfg:         cfg,
		logger:      log.Module("hub"),
		metrics:     rec,
		now:         time.Now,
		instruments: make(map[string]contracts.Instrument),
		signals:     make(map[string]contracts.Signal),
		subscribers: make(map[uint64]*Subscription),
	}
}

// Seed replaces the mirrored state without publishing events.
// notifications must be ordered newest first.
func (h *Hub) Seed(instruments []contracts.Instrument, signals []contracts.Signal, notifications []contracts.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.instruments = make(map[string]contracts.Instrument, len(instruments))
	for _, inst := range instruments {
		h.instruments[inst.Symbol] = inst
	}
	h.signals = make(map[string]contracts.Signal, len(signals))
	for _, sig := range signals {
		h.signals[sig.Symbol] = sig
	}
	if len(notifications) > h.cfg.SnapshotNotifications {
		notifications = notifications[:h.cfg.SnapshotNotifications]
	}
	h.notifications = append([]contracts.Notification(nil), notifications...)
}

// Subscribe registers for topics (all topics when none given) and returns
// the current state. Events published after the snapshot follow it in order.
func (h *Hub) Subscribe(topics ...Topic) (*Subscription, Snapshot, error) {
	if len(topics) == 0 {
		topics = AllTopics
	}
	set := make(map[Topic]bool, len(topics))
	for _, t := range topics {
		if _, err := ParseTopic(string(t)); err != nil {
			return nil, Snapshot{}, err
		}
		set[t] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.snapshotLocked(set)

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		hub:    h,
		topics: set,
		events: make(chan Event, h.cfg.BufferSize),
	}
	h.subscribers[sub.id] = sub
	h.metrics.SubscriberAdded()

	return sub, snap, nil
}

// Snapshot returns the current state for every topic
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := make(map[Topic]bool, len(AllTopics))
	for _, t := range AllTopics {
		all[t] = true
	}
	return h.snapshotLocked(all)
}

func (h *Hub) snapshotLocked(topics map[Topic]bool) Snapshot {
	snap := Snapshot{Seq: h.seq}

	if topics[TopicInstruments] {
		snap.Instruments = make([]contracts.Instrument, 0, len(h.instruments))
		for _, inst := range h.instruments {
			snap.Instruments = append(snap.Instruments, inst)
		}
		sort.Slice(snap.Instruments, func(i, j int) bool {
			return snap.Instruments[i].Symbol < snap.Instruments[j].Symbol
		})
	}

	if topics[TopicSignals] {
		snap.Signals = make([]contracts.Signal, 0, len(h.signals))
		for _, sig := range h.signals {
			snap.Signals = append(snap.Signals, sig)
		}
		sort.Slice(snap.Signals, func(i, j int) bool {
			if snap.Signals[i].CreatedAt.Equal(snap.Signals[j].CreatedAt) {
				return snap.Signals[i].Symbol < snap.Signals[j].Symbol
			}
			return snap.Signals[i].CreatedAt.After(snap.Signals[j].CreatedAt)
		})
	}

	if topics[TopicNotifications] {
		snap.Notifications = append([]contracts.Notification{}, h.notifications...)
	}

	return snap
}

// PublishInstrument mirrors and broadcasts an instrument update.
// An update older than the mirrored row is ignored.
func (h *Hub) PublishInstrument(inst contracts.Instrument) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.instruments[inst.Symbol]; ok && inst.UpdatedAt.Before(existing.UpdatedAt) {
		return false
	}
	h.instruments[inst.Symbol] = inst
	h.broadcastLocked(TopicInstruments, EventInstrumentUpdated, inst)
	return true
}

// PublishSignal mirrors and broadcasts a newly activated signal
func (h *Hub) PublishSignal(sig contracts.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.signals[sig.Symbol] = sig
	h.broadcastLocked(TopicSignals, EventSignalActivated, sig)
}

// PublishNotification mirrors and broadcasts a new notification
func (h *Hub) PublishNotification(n contracts.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.notifications = append([]contracts.Notification{n}, h.notifications...)
	if len(h.notifications) > h.cfg.SnapshotNotifications {
		h.notifications = h.notifications[:h.cfg.SnapshotNotifications]
	}
	h.broadcastLocked(TopicNotifications, EventNotificationCreated, n)
}

// PublishNotificationRead mirrors and broadcasts an acknowledgment
func (h *Hub) PublishNotificationRead(n contracts.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.notifications {
		if h.notifications[i].ID == n.ID {
			h.notifications[i].IsRead = true
		}
	}
	h.broadcastLocked(TopicNotifications, EventNotificationRead, n)
}

// broadcastLocked delivers to every subscriber of topic without blocking.
// A subscriber whose buffer is full is disconnected.
func (h *Hub) broadcastLocked(topic Topic, typ EventType, data interface{}) {
	h.seq++
	ev := Event{
		Seq:       h.seq,
		Topic:     topic,
		Type:      typ,
		Data:      data,
		Timestamp: h.now(),
	}

	for id, sub := range h.subscribers {
		if !sub.topics[topic] {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			delete(h.subscribers, id)
			sub.dropped = true
			close(sub.events)
			h.metrics.SubscriberRemoved(true)
			h.logger.WithFields(map[string]interface{}{
				"subscriber": id,
				"topic":      topic,
				"buffer":     cap(sub.events),
			}).Warn("Disconnected slow subscriber")
		}
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Subscription is one consumer's event stream
type Subscription struct {
	id      uint64
	hub     *Hub
	topics  map[Topic]bool
	events  chan Event
	dropped bool // guarded by hub.mu
	closed  bool // guarded by hub.mu
}

// Events returns the stream. It is closed on Cancel or when the subscriber is dropped.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Dropped reports whether the hub disconnected this subscriber for falling behind
func (s *Subscription) Dropped() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}

// Cancel unsubscribes. Safe to call more than once; after it returns the
// stream is closed and holds no undelivered events.
func (s *Subscription) Cancel() {
	h := s.hub
	h.mu.Lock()
	if s.closed {
		h.mu.Unlock()
		return
	}
	s.closed = true
	if _, ok := h.subscribers[s.id]; ok {
		delete(h.subscribers, s.id)
		close(s.events)
		h.metrics.SubscriberRemoved(false)
	}
	h.mu.Unlock()

	for range s.events {
	}
}
