package broadcast

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "webrtc/room-1", RoomTopic("room-1"))
	assert.Equal(t, "chat/chat-1/typing", TypingTopic("chat-1"))
	assert.Equal(t, "presence", PresenceTopic)
}

type hubFixture struct {
	hub *Hub
	srv *httptest.Server
}

// newHubFixture serves websocket upgrades that register the connecting
// user and subscribe it to the topic named in the query string.
func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.Register(r.URL.Query().Get("user"), conn)
		hub.Subscribe(client, r.URL.Query().Get("topic"))
	}))
	t.Cleanup(srv.Close)

	return &hubFixture{hub: hub, srv: srv}
}

func (f *hubFixture) dial(t *testing.T, user, topic string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/?user=" + user + "&topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	f.waitForSubscribers(t, topic, 1)
	return conn
}

func (f *hubFixture) waitForSubscribers(t *testing.T, topic string, min int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.hub.mu.RLock()
		n := len(f.hub.topics[topic])
		f.hub.mu.RUnlock()
		if n >= min {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("topic %q never reached %d subscribers", topic, min)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(frame, &payload))
	return payload
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	f := newHubFixture(t)

	conn := f.dial(t, "alice", "webrtc/room-1")

	f.hub.Publish("webrtc/room-1", map[string]string{"type": "OFFER"})

	payload := readFrame(t, conn)
	assert.Equal(t, "OFFER", payload["type"])
}

func TestHubPublishIsTopicScoped(t *testing.T) {
	f := newHubFixture(t)

	room1 := f.dial(t, "alice", "webrtc/room-1")
	room2 := f.dial(t, "bob", "webrtc/room-2")
	f.waitForSubscribers(t, "webrtc/room-2", 1)

	f.hub.Publish("webrtc/room-1", map[string]string{"type": "OFFER"})

	payload := readFrame(t, room1)
	assert.Equal(t, "OFFER", payload["type"])

	require.NoError(t, room2.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := room2.ReadMessage()
	assert.Error(t, err, "other topics stay silent")
}

func TestHubPublishToUser(t *testing.T) {
	f := newHubFixture(t)

	alice := f.dial(t, "alice", "webrtc/room-1")
	bob := f.dial(t, "bob", "webrtc/room-1")
	f.waitForSubscribers(t, "webrtc/room-1", 2)

	f.hub.PublishToUser("webrtc/room-1", "bob", map[string]string{"type": "EXISTING_PEER"})

	payload := readFrame(t, bob)
	assert.Equal(t, "EXISTING_PEER", payload["type"])

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err, "user-scoped messages skip other subscribers")
}

func TestHubUnregisterDropsSubscriptions(t *testing.T) {
	f := newHubFixture(t)

	hub := f.hub
	f.dial(t, "alice", "webrtc/room-1")

	hub.mu.RLock()
	var client *Client
	for c := range hub.clients {
		client = c
	}
	hub.mu.RUnlock()
	require.NotNil(t, client)

	hub.Unregister(client)
	hub.Unregister(client) // safe to repeat

	hub.mu.RLock()
	_, stillThere := hub.topics["webrtc/room-1"]
	hub.mu.RUnlock()
	assert.False(t, stillThere)

	// Publishing after unregister must not panic or deliver.
	hub.Publish("webrtc/room-1", map[string]string{"type": "OFFER"})
}

func TestRecorderCaptures(t *testing.T) {
	rec := NewRecorder()

	rec.Publish("presence", "a")
	rec.PublishToUser("webrtc/r", "bob", "b")

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Empty(t, events[0].UserID)
	assert.Equal(t, "bob", events[1].UserID)

	assert.Len(t, rec.ByTopic("presence"), 1)

	rec.Reset()
	assert.Empty(t, rec.Events())
}
