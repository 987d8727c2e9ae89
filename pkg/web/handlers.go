package web

import (
	"runtime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/hub"
)

// StatusReport is the /api/status payload.
type StatusReport struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Bus           bus.Stats `json:"bus"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  uint64    `json:"memory_used_mb"`
	Goroutines    int       `json:"goroutines"`
	EventClients  int       `json:"event_clients"`
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus reports runtime and bus health.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	report := StatusReport{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		EventClients:  s.events.ClientCount(),
	}

	if s.StatsFunc != nil {
		report.Bus = s.StatsFunc()
	}

	// Best-effort host metrics; missing values stay zero.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		report.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.MemoryPercent = vm.UsedPercent
		report.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	return c.JSON(report)
}

// handleConversation returns the recent exchange buffer.
func (s *Server) handleConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// SayRequest is the /api/say body.
type SayRequest struct {
	Text string `json:"text"`
}

// handleSay injects a typed utterance into the pipeline, as if it had
// arrived on the input subject.
func (s *Server) handleSay(c *fiber.Ctx) error {
	var req SayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if s.SayFunc == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "pipeline not attached",
		})
	}

	if err := s.SayFunc(text); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.AddConversation("user", text)
	return c.JSON(fiber.Map{"accepted": true})
}

// handleEventsWS streams pipeline events to one websocket client.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)
	client.Run() // blocks until the connection closes
}
