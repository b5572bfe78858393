package live

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, hub)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Broadcast(PositionsChanged)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != PositionsChanged {
		t.Errorf("got event %q, want %q", ev.Type, PositionsChanged)
	}
}

func TestBroadcastDropsClosedClients(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	// The write fails on the closed connection and evicts it. A second
	// broadcast then sees an empty client set.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		hub.Broadcast(TreesChanged)
		if time.Now().After(deadline) {
			t.Fatal("closed client never evicted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastNilHub(t *testing.T) {
	var hub *Hub
	hub.Broadcast(FieldsChanged) // must not panic
}
