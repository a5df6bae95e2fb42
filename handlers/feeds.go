package handlers

import (
	"log"
	"net/http"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/natsserver"
	"github.com/Akinaru/event-poll/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	feedHub    *services.FeedHub
	feedServer *natsserver.Server
	eventBus   *services.EventBus
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // browsers on any origin may follow a poll
		},
	}
)

// SetFeedHub sets the feed hub for the handlers. Socket subscriptions are
// checked against the polls table.
func SetFeedHub(hub *services.FeedHub) {
	if hub != nil {
		hub.SetPollLookup(database.PollExists)
	}
	feedHub = hub
}

// SetFeedServer exposes the poll event server counters on /feeds/stats
func SetFeedServer(server *natsserver.Server) {
	feedServer = server
}

// SetEventBus sets where mutations publish their poll events
func SetEventBus(bus *services.EventBus) {
	eventBus = bus
}

func publishEvent(ev models.PollEvent) {
	eventBus.Publish(ev)
}

// HandlePollFeedWebSocket streams the activity of one poll over a WebSocket.
// Clients may subscribe to further polls through the socket.
func HandlePollFeedWebSocket(c *gin.Context) {
	if feedHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed hub not initialized"})
		return
	}

	pollID, ok := existingPollID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}

	client := services.NewFeedClient(feedHub, conn, c.ClientIP())
	feedHub.Register(client)
	feedHub.Subscribe(client, pollID)

	go client.WritePump()
	go client.ReadPump()
}

// GetFeedHubStats returns feed hub statistics
func GetFeedHubStats(c *gin.Context) {
	if feedHub == nil {
		c.JSON(http.StatusOK, gin.H{
			"enabled": false,
		})
		return
	}

	stats := feedHub.Stats()
	body := gin.H{
		"enabled":         true,
		"clients":         stats.Clients,
		"watchedPolls":    stats.WatchedPolls,
		"eventsDelivered": stats.EventsDelivered,
	}
	if feedServer != nil {
		body["bus"] = feedServer.Stats()
	}
	c.JSON(http.StatusOK, body)
}
