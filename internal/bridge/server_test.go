package bridge_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ludo-gateway/internal/bridge"
)

func newTestBridge(t *testing.T) (*bridge.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := bridge.NewServer()
	engine := gin.New()
	s.Attach(engine)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return s, "ws" + strings.TrimPrefix(server.URL, "http") + "/bridge"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial bridge: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestSendDroppedUntilLoaded(t *testing.T) {
	s, url := newTestBridge(t)
	conn := dial(t, url)

	// The runtime has not reported loaded yet: the send is dropped, not
	// queued.
	if err := s.Send("GameManager", "UpdateBalanceTextJS", "1.5"); err != nil {
		t.Fatalf("Pre-load send should drop silently, got %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var dropped map[string]any
	if err := conn.ReadJSON(&dropped); err == nil {
		t.Fatalf("Nothing should arrive before Loaded, got %v", dropped)
	}

	if err := conn.WriteJSON(map[string]any{"event": "Loaded"}); err != nil {
		t.Fatalf("Failed to send Loaded: %v", err)
	}
	waitFor(t, s.Loaded, "runtime loaded")

	if err := s.Send("GameManager", "UpdateBalanceTextJS", "1.5"); err != nil {
		t.Fatalf("Post-load send failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		ID     string `json:"id"`
		Target string `json:"target"`
		Method string `json:"method"`
		Arg    any    `json:"arg"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read outbound message: %v", err)
	}
	if msg.Target != "GameManager" || msg.Method != "UpdateBalanceTextJS" || msg.Arg != "1.5" {
		t.Errorf("Unexpected outbound message: %+v", msg)
	}
	if msg.ID == "" {
		t.Error("Outbound messages must carry an id")
	}
}

func TestDispatchDecodesArgs(t *testing.T) {
	s, url := newTestBridge(t)

	received := make(chan bridge.Event, 1)
	s.SetSessionFunc(func() {
		if err := s.On("GameStart", func(e bridge.Event) {
			received <- e
		}); err != nil {
			t.Errorf("Failed to register handler: %v", err)
		}
	})

	conn := dial(t, url)
	if err := conn.WriteJSON(map[string]any{
		"event": "GameStart",
		"args":  []any{0.1, 10, 5, "low", "Long"},
	}); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}

	select {
	case e := <-received:
		if e.Name != "GameStart" {
			t.Errorf("Expected GameStart, got %s", e.Name)
		}
		if e.Float(0) != 0.1 || e.Float(2) != 5 {
			t.Errorf("Unexpected numeric args: %v", e.Args)
		}
		if e.String(3) != "low" || e.String(4) != "Long" {
			t.Errorf("Unexpected string args: %v", e.Args)
		}
		// Out-of-range access returns zero values.
		if e.String(9) != "" || e.Float(9) != 0 {
			t.Error("Out-of-range args must be zero values")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler never received the event")
	}
}

func TestDuplicateHandlerRejected(t *testing.T) {
	s := bridge.NewServer()

	if err := s.On("GameOver", func(bridge.Event) {}); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if err := s.On("GameOver", func(bridge.Event) {}); err == nil {
		t.Error("Second registration for the same event must fail")
	}

	s.Off("GameOver")
	if err := s.On("GameOver", func(bridge.Event) {}); err != nil {
		t.Errorf("Registration after Off failed: %v", err)
	}
}

func TestReconnectStartsFreshSession(t *testing.T) {
	s, url := newTestBridge(t)

	sessions := make(chan struct{}, 4)
	s.SetSessionFunc(func() {
		sessions <- struct{}{}
	})

	first := dial(t, url)
	<-sessions
	if err := first.WriteJSON(map[string]any{"event": "Loaded"}); err != nil {
		t.Fatalf("Failed to send Loaded: %v", err)
	}
	waitFor(t, s.Loaded, "first session loaded")

	// A second runtime connection replaces the first and resets the loaded
	// flag; the session callback runs again so handlers can be rebound.
	dial(t, url)
	select {
	case <-sessions:
	case <-time.After(2 * time.Second):
		t.Fatal("Session callback never ran for the second connection")
	}
	waitFor(t, func() bool { return !s.Loaded() }, "loaded flag reset")
}
