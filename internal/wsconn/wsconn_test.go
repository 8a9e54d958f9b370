package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// hubServer hosts the hub behind an httptest server and returns the ws URL.
func hubServer(t *testing.T, hub *Hub) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Subscribe(w, r)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

// waitForCount polls until the hub sees want subscribers or the deadline
// passes. Subscription registration races the dial returning.
func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers, have %d", want, hub.Count())
}

func TestHubPublishJSON(t *testing.T) {
	hub := NewHub(DefaultConfig())
	url := hubServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForCount(t, hub, 1)

	if err := hub.PublishJSON(map[string]any{"type": "gas", "gwei": 23.5}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("frame is not valid JSON: %v\ndata: %s", err, string(data))
	}
	if msg["type"] != "gas" {
		t.Errorf("expected type=gas, got %v", msg["type"])
	}
	if msg["gwei"] != 23.5 {
		t.Errorf("expected gwei=23.5, got %v", msg["gwei"])
	}
}

func TestHubFanout(t *testing.T) {
	hub := NewHub(DefaultConfig())
	url := hubServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dial(t, ctx, url)
	defer first.Close(websocket.StatusNormalClosure, "")
	second := dial(t, ctx, url)
	defer second.Close(websocket.StatusNormalClosure, "")

	waitForCount(t, hub, 2)

	hub.Publish([]byte(`{"type":"block","number":123}`))

	for i, conn := range []*websocket.Conn{first, second} {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("subscriber %d read failed: %v", i, err)
		}
		if !strings.Contains(string(data), `"number":123`) {
			t.Errorf("subscriber %d got unexpected frame: %s", i, data)
		}
	}
}

func TestHubRemovesClosedSubscriber(t *testing.T) {
	hub := NewHub(DefaultConfig())
	url := hubServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	waitForCount(t, hub, 1)

	conn.Close(websocket.StatusNormalClosure, "")
	waitForCount(t, hub, 0)

	// Publishing into an empty hub must not panic or block.
	hub.Publish([]byte(`{"type":"gas"}`))
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendBuffer = 1
	cfg.WriteTimeout = 50 * time.Millisecond
	hub := NewHub(cfg)
	url := hubServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	defer conn.CloseNow()

	waitForCount(t, hub, 1)

	// The client never reads. Keep publishing until the socket buffers
	// fill, the write times out and the hub evicts the subscriber.
	payload := []byte(strings.Repeat("x", 64*1024))
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		hub.Publish(payload)
		if hub.Count() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("slow subscriber was never dropped")
}

func TestHubConcurrentPublish(t *testing.T) {
	hub := NewHub(DefaultConfig())
	url := hubServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForCount(t, hub, 1)

	const publishers = 4
	const perPublisher = 5
	for i := 0; i < publishers; i++ {
		go func() {
			for j := 0; j < perPublisher; j++ {
				hub.Publish([]byte(`{"type":"tick"}`))
			}
		}()
	}

	// Frames from concurrent publishers must arrive whole.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != `{"type":"tick"}` {
		t.Errorf("unexpected frame: %s", data)
	}
}
