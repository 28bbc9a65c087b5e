package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

const clientSendBuffer = 16

// Client is one websocket connection attached to the hub. Outbound frames
// go through a buffered channel; a slow consumer drops frames rather than
// blocking a publisher.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *Client) UserID() string { return c.userID }

// Enqueue hands a pre-marshalled frame to the client's write loop.
func (c *Client) Enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.hub.log.Debug("dropping frame for slow client", slog.String("user_id", c.userID))
	}
}

// EnqueueJSON marshals payload and enqueues it. Marshal failures are
// logged and the frame is dropped.
func (c *Client) EnqueueJSON(payload any) {
	frame, err := json.Marshal(payload)
	if err != nil {
		c.hub.log.Error("marshal frame", slog.Any("error", err))
		return
	}
	c.Enqueue(frame)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

// Hub implements Publisher on top of gorilla websockets: it tracks which
// clients subscribe to which topic strings and fans published payloads out
// to them.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
	}
}

// Register attaches a connection for the given user and starts its write
// loop. The caller owns the read side.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	return client
}

// Unregister detaches the client from every topic and closes its write
// loop. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}

	h.mu.Lock()
	delete(h.clients, client)
	for topic, subs := range h.topics {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()

	// The send channel stays open so a racing publish can never panic;
	// the write loop exits via done instead.
	client.once.Do(func() { close(client.done) })
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[client] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers payload to every subscriber of topic.
func (h *Hub) Publish(topic string, payload any) {
	h.fanOut(topic, "", payload)
}

// PublishToUser delivers payload only to topic subscribers owned by userID.
func (h *Hub) PublishToUser(topic, userID string, payload any) {
	h.fanOut(topic, userID, payload)
}

func (h *Hub) fanOut(topic, userID string, payload any) {
	frame, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal broadcast payload", slog.String("topic", topic), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.topics[topic]))
	for client := range h.topics[topic] {
		if userID != "" && client.userID != userID {
			continue
		}
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.Enqueue(frame)
	}
}
