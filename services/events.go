package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Akinaru/event-poll/models"
)

// AllPollsSubject matches the event subject of every poll
const AllPollsSubject = "polls.*.events"

// Publisher is satisfied by *nats.Conn and *natsserver.Server
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventBus publishes poll activity events. A nil *EventBus drops them.
type EventBus struct {
	pub Publisher
}

// NewEventBus creates an event bus over pub
func NewEventBus(pub Publisher) *EventBus {
	return &EventBus{pub: pub}
}

// PollSubject is the subject events of one poll are published on
func PollSubject(pollID uint) string {
	return fmt.Sprintf("polls.%d.events", pollID)
}

// parsePollSubject extracts the poll id from polls.<id>.events
func parsePollSubject(subject string) (uint, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != "polls" || parts[2] != "events" {
		return 0, fmt.Errorf("invalid poll subject: %s", subject)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid poll id in subject %s: %w", subject, err)
	}
	return uint(id), nil
}

// Publish sends ev on the subject of its poll. Failures are logged, never
// returned: the mutation that produced the event has already succeeded.
func (b *EventBus) Publish(ev models.PollEvent) {
	if b == nil || b.pub == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("⚠️ Failed to encode poll event: %v", err)
		return
	}
	if err := b.pub.Publish(PollSubject(ev.PollID), data); err != nil {
		log.Printf("⚠️ Failed to publish %s for poll %d: %v", ev.Type, ev.PollID, err)
	}
}
