package live

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only ever send pongs and close frames.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token cookie already authenticates the socket where it
	// matters; events carry no payload, so cross-origin reads leak
	// nothing beyond ids.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection and its topic subscription.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	topics map[string]struct{}
	logger *slog.Logger
}

// wants reports whether the client subscribed to topic. An empty
// subscription matches every topic.
func (c *Client) wants(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	_, ok := c.topics[topic]
	return ok
}

func (c *Client) topicList() []string {
	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readPump discards inbound frames until the connection drops, then
// unregisters the client. Subscriptions are fixed at connect time, so
// there is nothing to parse.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("live client read error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump forwards queued events to the connection and pings it on a
// ticker. It exits when the hub closes the send channel or a write
// fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
// The topic filter comes from the "topics" query parameter as a comma
// separated list; absent or empty means all topics.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	topics := make(map[string]struct{})
	for _, name := range strings.Split(r.URL.Query().Get("topics"), ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			topics[name] = struct{}{}
		}
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan Event, 16),
		topics: topics,
		logger: h.logger,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
