// Package live pushes change notifications to connected browsers.
//
// It is the server side of the site's live subscriptions: a view
// subscribes to the topics it renders (posts, feed, users, ...) and
// refetches whenever an event for one of them arrives. Events carry
// only topic/action/id; the payload stays behind the normal REST
// endpoints and their access checks.
//
// The hub serializes all client bookkeeping through its Run loop
// (register/unregister/broadcast channels), so the clients map needs no
// locking. Each client owns two goroutines: a read pump that exists to
// detect disconnects, and a write pump that drains the client's send
// buffer and keeps the connection alive with pings.
package live

import (
	"context"
	"log/slog"
	"time"
)

// Topics published by the services. A client may subscribe to any
// subset; an empty subscription means everything.
const (
	TopicPosts        = "posts"
	TopicFeed         = "feed"
	TopicSubmissions  = "submissions"
	TopicSections     = "sections"
	TopicUsers        = "users"
	TopicPartners     = "partners"
	TopicApplications = "applications"
	TopicVideos       = "videos"
)

// Event is a change notification. Action is one of "created",
// "updated", "deleted", "approved", "rejected", "denied".
type Event struct {
	Topic  string    `json:"topic"`
	Action string    `json:"action"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Publisher is the slice of the hub the services need. Tests use a
// no-op or recording implementation.
type Publisher interface {
	Publish(topic, action, id string)
}

// Hub fans events out to every connected client subscribed to their
// topic.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		logger:     logger,
	}
}

// Run owns the clients map. It returns when ctx is cancelled, closing
// every client's send channel so their write pumps exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("live client connected",
				slog.Int("clients", len(h.clients)),
				slog.Any("topics", client.topicList()),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				if !client.wants(event.Topic) {
					continue
				}
				select {
				case client.send <- event:
				default:
					// The client stopped draining; drop it rather
					// than stall every other subscriber.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Publish queues an event for broadcast. It never blocks: if the hub
// is saturated the event is dropped; clients refetch full state on
// every event, so a lost notification delays a re-render, it cannot
// corrupt one.
func (h *Hub) Publish(topic, action, id string) {
	event := Event{Topic: topic, Action: action, ID: id, At: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("live event dropped",
			slog.String("topic", topic),
			slog.String("action", action),
		)
	}
}

// NopPublisher discards events. Used in tests and as a stand-in while
// wiring.
type NopPublisher struct{}

func (NopPublisher) Publish(topic, action, id string) {}
