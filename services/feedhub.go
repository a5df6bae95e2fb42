// Package services provides business logic services
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

// ErrUnknownPoll is returned when a client asks to watch a poll that does not exist
var ErrUnknownPoll = errors.New("poll not found")

// PollLookup reports whether a poll exists
type PollLookup func(pollID uint) (bool, error)

// FeedHub fans poll events from NATS out to WebSocket clients watching those polls
type FeedHub struct {
	natsConn *nats.Conn
	natsSub  *nats.Subscription

	// WebSocket connections
	clients   map[*FeedClient]bool
	clientsMu sync.RWMutex

	// Poll id -> clients watching it
	watchers   map[uint]map[*FeedClient]bool
	watchersMu sync.RWMutex

	register   chan *FeedClient
	unregister chan *FeedClient
	stop       chan struct{}
	stopOnce   sync.Once

	// nil accepts any poll id
	pollExists PollLookup

	eventsDelivered uint64
}

// FeedClient represents a WebSocket client watching polls
type FeedClient struct {
	hub        *FeedHub
	conn       *websocket.Conn
	send       chan []byte
	polls      map[uint]bool // polls this client is watching
	pollsMu    sync.RWMutex
	remoteAddr string
}

// FeedMessage is a control message from clients
type FeedMessage struct {
	Type   string `json:"type"` // subscribe, unsubscribe, ping
	PollID uint   `json:"pollId,omitempty"`
}

// NewFeedHub creates a feed hub and subscribes it to every poll's events
func NewFeedHub(natsConn *nats.Conn) (*FeedHub, error) {
	h := &FeedHub{
		natsConn:   natsConn,
		clients:    make(map[*FeedClient]bool),
		watchers:   make(map[uint]map[*FeedClient]bool),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
		stop:       make(chan struct{}),
	}

	sub, err := natsConn.Subscribe(AllPollsSubject, h.handleEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to poll events: %w", err)
	}
	if err := natsConn.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush poll events subscription: %w", err)
	}
	h.natsSub = sub

	return h, nil
}

// Register adds a client to the hub
func (h *FeedHub) Register(client *FeedClient) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

// Unregister removes a client and closes its send channel
func (h *FeedHub) Unregister(client *FeedClient) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// Run starts the hub's main loop
func (h *FeedHub) Run() {
	log.Println("📺 Poll feed hub started")

	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			log.Printf("📺 Client connected: %s", client.remoteAddr)

		case client := <-h.unregister:
			// Stop broadcasts to the client before closing its channel
			client.pollsMu.Lock()
			for pollID := range client.polls {
				h.removeWatcher(client, pollID)
			}
			client.polls = make(map[uint]bool)
			client.pollsMu.Unlock()

			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()

			log.Printf("📺 Client disconnected: %s", client.remoteAddr)
		}
	}
}

// Stop ends Run and drops the NATS subscription
func (h *FeedHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		if h.natsSub != nil {
			h.natsSub.Unsubscribe()
		}
	})
}

// SetPollLookup makes Watch reject polls that do not exist. Call it before
// clients connect.
func (h *FeedHub) SetPollLookup(lookup PollLookup) {
	h.pollExists = lookup
}

// Watch subscribes client to pollID after checking that the poll exists
func (h *FeedHub) Watch(client *FeedClient, pollID uint) error {
	if h.pollExists != nil {
		exists, err := h.pollExists(pollID)
		if err != nil {
			return fmt.Errorf("failed to look up poll %d: %w", pollID, err)
		}
		if !exists {
			return ErrUnknownPoll
		}
	}

	h.Subscribe(client, pollID)
	return nil
}

// Subscribe makes client receive the events of pollID
func (h *FeedHub) Subscribe(client *FeedClient, pollID uint) {
	h.watchersMu.Lock()
	viewers, exists := h.watchers[pollID]
	if !exists {
		viewers = make(map[*FeedClient]bool)
		h.watchers[pollID] = viewers
	}
	viewers[client] = true
	h.watchersMu.Unlock()

	client.pollsMu.Lock()
	client.polls[pollID] = true
	client.pollsMu.Unlock()

	log.Printf("📺 Client %s watching poll %d", client.remoteAddr, pollID)
}

// Unsubscribe stops client receiving the events of pollID
func (h *FeedHub) Unsubscribe(client *FeedClient, pollID uint) {
	client.pollsMu.Lock()
	delete(client.polls, pollID)
	client.pollsMu.Unlock()

	h.removeWatcher(client, pollID)
}

func (h *FeedHub) removeWatcher(client *FeedClient, pollID uint) {
	h.watchersMu.Lock()
	defer h.watchersMu.Unlock()

	viewers, exists := h.watchers[pollID]
	if !exists {
		return
	}
	delete(viewers, client)
	if len(viewers) == 0 {
		delete(h.watchers, pollID)
	}
}

// handleEvent forwards a raw poll event to every watcher of its poll
func (h *FeedHub) handleEvent(msg *nats.Msg) {
	pollID, err := parsePollSubject(msg.Subject)
	if err != nil {
		log.Printf("⚠️ %v", err)
		return
	}

	h.watchersMu.RLock()
	defer h.watchersMu.RUnlock()

	for client := range h.watchers[pollID] {
		select {
		case client.send <- msg.Data:
			atomic.AddUint64(&h.eventsDelivered, 1)
		default:
			// Client buffer full, skip event
		}
	}
}

// HubStats holds hub statistics
type HubStats struct {
	Clients         int    `json:"clients"`
	WatchedPolls    []uint `json:"watchedPolls"`
	EventsDelivered uint64 `json:"eventsDelivered"`
}

// Stats returns hub statistics
func (h *FeedHub) Stats() HubStats {
	h.clientsMu.RLock()
	clientCount := len(h.clients)
	h.clientsMu.RUnlock()

	h.watchersMu.RLock()
	polls := make([]uint, 0, len(h.watchers))
	for pollID := range h.watchers {
		polls = append(polls, pollID)
	}
	h.watchersMu.RUnlock()
	sort.Slice(polls, func(i, j int) bool { return polls[i] < polls[j] })

	return HubStats{
		Clients:         clientCount,
		WatchedPolls:    polls,
		EventsDelivered: atomic.LoadUint64(&h.eventsDelivered),
	}
}

func encodeControl(msg map[string]interface{}) []byte {
	data, _ := json.Marshal(msg)
	return data
}
