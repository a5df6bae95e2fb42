package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedIdleTimeout  = 60 * time.Second
	feedPingInterval = feedIdleTimeout * 9 / 10 // must stay below feedIdleTimeout

	maxControlMessage = 4 * 1024 // control messages are tiny JSON objects
	pollEventBacklog  = 64       // events queued per client before new ones are dropped
)

// NewFeedClient wraps a websocket following one or more polls
func NewFeedClient(hub *FeedHub, conn *websocket.Conn, remoteAddr string) *FeedClient {
	return &FeedClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, pollEventBacklog),
		polls:      make(map[uint]bool),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads control messages until the socket closes, then leaves the hub
func (c *FeedClient) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxControlMessage)
	c.conn.SetReadDeadline(time.Now().Add(feedIdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedIdleTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ Poll feed socket %s closed: %v", c.remoteAddr, err)
			}
			return
		}
		c.handleControl(raw)
	}
}

// handleControl applies one control message: subscribe and unsubscribe
// change the watched polls, ping is answered with pong
func (c *FeedClient) handleControl(raw []byte) {
	var msg FeedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("invalid message")
		return
	}

	switch msg.Type {
	case "subscribe":
		if msg.PollID == 0 {
			c.sendError("pollId required")
			return
		}
		if err := c.hub.Watch(c, msg.PollID); err != nil {
			if !errors.Is(err, ErrUnknownPoll) {
				log.Printf("⚠️ Subscribe from %s failed: %v", c.remoteAddr, err)
			}
			c.sendError(err.Error())
		}
	case "unsubscribe":
		if msg.PollID == 0 {
			c.sendError("pollId required")
			return
		}
		c.hub.Unsubscribe(c, msg.PollID)
	case "ping":
		c.enqueue(encodeControl(map[string]interface{}{"type": "pong"}))
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// WritePump forwards queued poll events to the socket and keeps it alive
// with pings. It returns once the hub closes the queue.
func (c *FeedClient) WritePump() {
	keepAlive := time.NewTicker(feedPingInterval)
	defer func() {
		keepAlive.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, open := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}
		case <-keepAlive.C:
			c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *FeedClient) sendError(reason string) {
	c.enqueue(encodeControl(map[string]interface{}{
		"type":  "error",
		"error": reason,
	}))
}

// enqueue drops msg when the client's backlog is full
func (c *FeedClient) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}
