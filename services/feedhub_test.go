package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/natsserver"
)

func startHub(t *testing.T) (*FeedHub, *EventBus) {
	t.Helper()

	ns, err := natsserver.New(natsserver.Config{Port: -1})
	if err != nil {
		t.Fatalf("Failed to start NATS: %v", err)
	}
	t.Cleanup(ns.Shutdown)

	hub, err := NewFeedHub(ns.Conn())
	if err != nil {
		t.Fatalf("NewFeedHub failed: %v", err)
	}
	go hub.Run()
	t.Cleanup(hub.Stop)

	return hub, NewEventBus(ns)
}

func receiveEvent(t *testing.T, client *FeedClient) models.PollEvent {
	t.Helper()

	select {
	case data := <-client.send:
		var ev models.PollEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("Failed to decode event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
	return models.PollEvent{}
}

func TestFeedHubRoutesEventsByPoll(t *testing.T) {
	hub, bus := startHub(t)

	watcher := NewFeedClient(hub, nil, "watcher")
	other := NewFeedClient(hub, nil, "other")
	hub.Register(watcher)
	hub.Register(other)
	hub.Subscribe(watcher, 7)
	hub.Subscribe(other, 8)

	bus.Publish(models.PollEvent{Type: models.EventVoteUpsert, PollID: 7, UserID: 3})

	ev := receiveEvent(t, watcher)
	if ev.Type != models.EventVoteUpsert || ev.PollID != 7 || ev.UserID != 3 {
		t.Errorf("Unexpected event %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Expected the bus to stamp the event")
	}

	select {
	case data := <-other.send:
		t.Errorf("Client watching poll 8 got %s", data)
	case <-time.After(100 * time.Millisecond):
	}

	stats := hub.Stats()
	if stats.Clients != 2 {
		t.Errorf("Expected 2 clients, got %d", stats.Clients)
	}
	if len(stats.WatchedPolls) != 2 || stats.WatchedPolls[0] != 7 || stats.WatchedPolls[1] != 8 {
		t.Errorf("Expected watched polls [7 8], got %v", stats.WatchedPolls)
	}
	if stats.EventsDelivered != 1 {
		t.Errorf("Expected 1 delivered event, got %d", stats.EventsDelivered)
	}
}

func TestFeedHubUnsubscribe(t *testing.T) {
	hub, bus := startHub(t)

	client := NewFeedClient(hub, nil, "client")
	hub.Register(client)
	hub.Subscribe(client, 1)
	hub.Unsubscribe(client, 1)

	bus.Publish(models.PollEvent{Type: models.EventPollDeleted, PollID: 1})

	select {
	case data := <-client.send:
		t.Errorf("Unsubscribed client got %s", data)
	case <-time.After(100 * time.Millisecond):
	}

	if polls := hub.Stats().WatchedPolls; len(polls) != 0 {
		t.Errorf("Expected no watched polls, got %v", polls)
	}
}

func TestNilEventBusDropsEvents(t *testing.T) {
	var bus *EventBus
	bus.Publish(models.PollEvent{Type: models.EventPollCreated, PollID: 1})
}

func TestParsePollSubject(t *testing.T) {
	id, err := parsePollSubject(PollSubject(42))
	if err != nil || id != 42 {
		t.Errorf("Expected 42, got %d, %v", id, err)
	}

	for _, subject := range []string{"polls.x.events", "votes.1.events", "polls.1"} {
		if _, err := parsePollSubject(subject); err == nil {
			t.Errorf("Expected error for %q", subject)
		}
	}
}

func TestFeedHubUnregisterClosesClient(t *testing.T) {
	hub, _ := startHub(t)

	client := NewFeedClient(hub, nil, "client")
	hub.Register(client)
	hub.Subscribe(client, 3)
	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("Expected the send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for unregister")
	}

	stats := hub.Stats()
	if stats.Clients != 0 || len(stats.WatchedPolls) != 0 {
		t.Errorf("Expected an empty hub, got %+v", stats)
	}
}

func TestFeedHubStoppedDoesNotBlock(t *testing.T) {
	hub, _ := startHub(t)
	hub.Stop()

	done := make(chan struct{})
	go func() {
		client := NewFeedClient(hub, nil, "late")
		hub.Register(client)
		hub.Unregister(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Register/Unregister blocked on a stopped hub")
	}
}

func TestFeedHubWatchChecksPolls(t *testing.T) {
	hub, _ := startHub(t)
	hub.SetPollLookup(func(pollID uint) (bool, error) {
		switch pollID {
		case 1:
			return true, nil
		case 2:
			return false, errors.New("database down")
		}
		return false, nil
	})

	client := NewFeedClient(hub, nil, "client")
	hub.Register(client)

	if err := hub.Watch(client, 1); err != nil {
		t.Fatalf("Expected poll 1 to be watchable, got %v", err)
	}
	if err := hub.Watch(client, 99); !errors.Is(err, ErrUnknownPoll) {
		t.Errorf("Expected ErrUnknownPoll for poll 99, got %v", err)
	}
	if err := hub.Watch(client, 2); err == nil || errors.Is(err, ErrUnknownPoll) {
		t.Errorf("Expected the lookup error for poll 2, got %v", err)
	}

	if polls := hub.Stats().WatchedPolls; len(polls) != 1 || polls[0] != 1 {
		t.Errorf("Expected only poll 1 watched, got %v", polls)
	}
}

func TestFeedClientControlMessages(t *testing.T) {
	hub, _ := startHub(t)
	hub.SetPollLookup(func(pollID uint) (bool, error) { return pollID == 5, nil })

	client := NewFeedClient(hub, nil, "client")
	hub.Register(client)

	control := func(raw string) map[string]interface{} {
		t.Helper()
		client.handleControl([]byte(raw))
		select {
		case data := <-client.send:
			var msg map[string]interface{}
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("Invalid reply %s: %v", data, err)
			}
			return msg
		default:
			return nil
		}
	}

	tests := []struct {
		name      string
		raw       string
		wantType  string // "" when no reply is expected
		wantError string
	}{
		{"ping", `{"type":"ping"}`, "pong", ""},
		{"subscribe existing", `{"type":"subscribe","pollId":5}`, "", ""},
		{"subscribe unknown", `{"type":"subscribe","pollId":6}`, "error", "poll not found"},
		{"subscribe without id", `{"type":"subscribe"}`, "error", "pollId required"},
		{"unknown type", `{"type":"shout"}`, "error", "unknown message type: shout"},
		{"not json", `hello`, "error", "invalid message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := control(tt.raw)
			if tt.wantType == "" {
				if reply != nil {
					t.Errorf("Expected no reply, got %v", reply)
				}
				return
			}
			if reply == nil || reply["type"] != tt.wantType {
				t.Fatalf("Expected a %s reply, got %v", tt.wantType, reply)
			}
			if tt.wantError != "" && reply["error"] != tt.wantError {
				t.Errorf("Expected error %q, got %v", tt.wantError, reply["error"])
			}
		})
	}

	if polls := hub.Stats().WatchedPolls; len(polls) != 1 || polls[0] != 5 {
		t.Errorf("Expected only poll 5 watched, got %v", polls)
	}

	control(`{"type":"unsubscribe","pollId":5}`)
	if polls := hub.Stats().WatchedPolls; len(polls) != 0 {
		t.Errorf("Expected no watched polls after unsubscribe, got %v", polls)
	}
}
