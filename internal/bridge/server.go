package bridge

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// loadedEvent is the first message the runtime sends once its scene is up.
// Everything sent to the runtime before this arrives is dropped.
const loadedEvent = "Loaded"

type inboundMessage struct {
	ID    string `json:"id,omitempty"`
	Event string `json:"event"`
	Args  []any  `json:"args,omitempty"`
}

type outboundMessage struct {
	ID     string `json:"id"`
	Target string `json:"target"`
	Method string `json:"method"`
	Arg    any    `json:"arg,omitempty"`
}

// Server hosts the runtime-facing WebSocket endpoint. A single runtime
// connection is active at a time; a new connection replaces the old one and
// starts a fresh bridge session (handlers must be re-registered).
type Server struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	handlers map[string]Handler
	loaded   bool

	onSession func()
	onReady   func()
}

func NewServer() *Server {
	return &Server{
		handlers: make(map[string]Handler),
	}
}

// SetSessionFunc registers the callback invoked when a runtime connects,
// after the previous session's handlers have been cleared. The composition
// root re-registers the event router here.
func (s *Server) SetSessionFunc(fn func()) {
	s.mu.Lock()
	s.onSession = fn
	s.mu.Unlock()
}

// SetReadyFunc registers the callback invoked when the runtime reports
// loaded. Initial state pushes (balances, wallet address) hang off this.
func (s *Server) SetReadyFunc(fn func()) {
	s.mu.Lock()
	s.onReady = fn
	s.mu.Unlock()
}

// Attach registers the bridge route on the gin engine.
func (s *Server) Attach(router *gin.Engine) {
	router.GET("/bridge", s.handleBridge)
}

func (s *Server) handleBridge(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.loaded = false
	s.handlers = make(map[string]Handler)
	onSession := s.onSession
	s.mu.Unlock()

	log.Printf("Runtime connected: %s", conn.RemoteAddr())

	if onSession != nil {
		onSession()
	}

	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			s.loaded = false
		}
		s.mu.Unlock()
		conn.Close()
		log.Printf("Runtime disconnected: %s", conn.RemoteAddr())
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Bridge read error: %v", err)
			}
			return
		}

		s.dispatch(conn, msg)
	}
}

func (s *Server) dispatch(conn *websocket.Conn, msg inboundMessage) {
	if msg.Event == loadedEvent {
		s.mu.Lock()
		if s.conn == conn {
			s.loaded = true
		}
		onReady := s.onReady
		s.mu.Unlock()

		if onReady != nil {
			onReady()
		}
		return
	}

	s.mu.Lock()
	h, ok := s.handlers[msg.Event]
	s.mu.Unlock()

	if !ok {
		log.Printf("No handler for runtime event %q", msg.Event)
		return
	}

	h(Event{Name: msg.Event, Args: msg.Args})
}

// Send delivers a named message to the runtime. Sends before the runtime
// reports loaded are dropped, matching the delivery contract.
func (s *Server) Send(target, method string, arg any) error {
	s.mu.Lock()
	conn := s.conn
	loaded := s.loaded
	s.mu.Unlock()

	if conn == nil || !loaded {
		log.Printf("Dropping %s.%s: runtime not loaded", target, method)
		return nil
	}

	msg := outboundMessage{
		ID:     uuid.New().String(),
		Target: target,
		Method: method,
		Arg:    arg,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s.%s: %v", target, method, err)
	}
	return nil
}

func (s *Server) On(event string, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[event]; exists {
		return fmt.Errorf("handler already registered for event %q", event)
	}
	s.handlers[event] = h
	return nil
}

func (s *Server) Off(event string) {
	s.mu.Lock()
	delete(s.handlers, event)
	s.mu.Unlock()
}

func (s *Server) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
