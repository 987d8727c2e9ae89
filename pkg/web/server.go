// Package web serves the coach status API and the live event stream.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/hub"
)

const conversationBuffer = 100

// ConversationEntry is one visible exchange line.
type ConversationEntry struct {
	Time string `json:"time"`
	Role string `json:"role"` // user, coach
	Text string `json:"text"`
}

// Server is the coach dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	events *hub.Hub
	logger *slog.Logger

	started time.Time

	// Conversation buffer (last 100 entries)
	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	// StatsFunc reports bus counters for /api/status.
	StatsFunc func() bus.Stats

	// SayFunc injects a typed utterance into the pipeline.
	SayFunc func(text string) error
}

// NewServer creates the dashboard server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:         addr,
		events:       hub.New(logger),
		logger:       logger.With("component", "web"),
		started:      time.Now(),
		conversation: make([]ConversationEntry, 0, conversationBuffer),
	}

	app := fiber.New(fiber.Config{
		AppName:               "NextGen Coach",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/healthz", s.handleHealthz)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/conversation", s.handleConversation)
	api.Post("/say", s.handleSay)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the event hub and listens. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Events returns the broadcast hub for pipeline events.
func (s *Server) Events() *hub.Hub {
	return s.events
}

// AddConversation records an exchange line and pushes it to clients.
func (s *Server) AddConversation(role, text string) {
	entry := ConversationEntry{
		Time: time.Now().Format("15:04:05"),
		Role: role,
		Text: text,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > conversationBuffer {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()

	s.events.BroadcastJSON("conversation", entry)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
