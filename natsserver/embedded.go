// Package natsserver runs the in-process NATS server that carries poll
// activity from the HTTP handlers to the websocket feed hub.
package natsserver

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const readyTimeout = 5 * time.Second

// Config for the poll event server
type Config struct {
	Host       string
	Port       int   // -1 picks a free port
	MaxPayload int32 // largest poll event accepted, in bytes
}

// DefaultConfig listens on loopback only; poll events never leave the host
func DefaultConfig() Config {
	return Config{
		Host:       "127.0.0.1",
		Port:       4233,
		MaxPayload: 64 * 1024,
	}
}

// Server is an embedded NATS server plus the connection the API publishes
// poll events on and the feed hub subscribes with
type Server struct {
	ns *server.Server
	nc *nats.Conn

	published atomic.Uint64
	failed    atomic.Uint64
}

// New starts the server and connects to it
func New(cfg Config) (*Server, error) {
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = defaults.MaxPayload
	}

	ns, err := server.NewServer(&server.Options{
		Host:       cfg.Host,
		Port:       cfg.Port,
		MaxPayload: cfg.MaxPayload,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poll event server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("poll event server not ready after %s", readyTimeout)
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Name("eventpoll-api"))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to poll event server: %w", err)
	}

	return &Server{ns: ns, nc: nc}, nil
}

// Publish sends one encoded poll event on subject
func (s *Server) Publish(subject string, data []byte) error {
	if err := s.nc.Publish(subject, data); err != nil {
		s.failed.Add(1)
		return err
	}
	s.published.Add(1)
	return nil
}

// Subscribe registers handler for subject, wildcards included
func (s *Server) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return s.nc.Subscribe(subject, handler)
}

// Conn is the API's own connection; the feed hub subscribes through it
func (s *Server) Conn() *nats.Conn {
	return s.nc
}

// Address is the client URL other processes can use to follow poll events
func (s *Server) Address() string {
	return s.ns.ClientURL()
}

// Stats describes poll event traffic through the server
type Stats struct {
	Connections     int    `json:"connections"`
	Subscriptions   uint32 `json:"subscriptions"`
	EventsPublished uint64 `json:"eventsPublished"`
	EventsFailed    uint64 `json:"eventsFailed"`
	MessagesIn      int64  `json:"messagesIn"`
	MessagesOut     int64  `json:"messagesOut"`
	SlowConsumers   int64  `json:"slowConsumers"`
}

// Stats returns counters for the poll event traffic
func (s *Server) Stats() Stats {
	stats := Stats{
		Connections:     s.ns.NumClients(),
		Subscriptions:   s.ns.NumSubscriptions(),
		EventsPublished: s.published.Load(),
		EventsFailed:    s.failed.Load(),
	}
	if varz, err := s.ns.Varz(nil); err == nil && varz != nil {
		stats.MessagesIn = varz.InMsgs
		stats.MessagesOut = varz.OutMsgs
		stats.SlowConsumers = varz.SlowConsumers
	}
	return stats
}

// Shutdown closes the API connection, then stops the server
func (s *Server) Shutdown() {
	if s.nc != nil {
		s.nc.Close()
	}
	if s.ns != nil {
		s.ns.Shutdown()
		s.ns.WaitForShutdown()
	}
	log.Println("📡 Poll event server stopped")
}
