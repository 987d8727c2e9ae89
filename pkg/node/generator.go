package node

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/inference"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/memory"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
)

// DefaultSystemPrompt frames the reply style when config provides none.
const DefaultSystemPrompt = "You are a friendly personal coach. Reply in one or two short, spoken-word sentences."

// GeneratorConfig tunes the generation stage.
type GeneratorConfig struct {
	// MaxTokens is the maximum-length constraint passed on every call.
	MaxTokens int

	// Temperature for the backend; 0 uses the provider default.
	Temperature float64

	// SystemPrompt frames the conversation.
	SystemPrompt string

	// RequestTimeout bounds one generation call.
	RequestTimeout time.Duration

	// RequestsPerMinute rate-limits the backend. 0 disables the limiter.
	RequestsPerMinute int
}

// DefaultGeneratorConfig returns sensible defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxTokens:      100,
		SystemPrompt:   DefaultSystemPrompt,
		RequestTimeout: 30 * time.Second,
	}
}

// Generator subscribes to the input subject, makes exactly one generation
// call per non-empty utterance and publishes the first candidate on the
// response subject. A failed call ends that pass: log, publish nothing.
type Generator struct {
	bus           Bus
	inSubject     string
	outSubject    string
	statusSubject string
	provider      inference.Provider
	cfg           GeneratorConfig
	logger        *slog.Logger

	// Optional memory stores; any of them may be nil.
	archive *memory.Archive
	recent  memory.Recent
	profile *memory.Profile

	limiter *rate.Limiter
}

// NewGenerator creates the generation stage.
func NewGenerator(b Bus, inSubject, outSubject, statusSubject string, provider inference.Provider, cfg GeneratorConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultGeneratorConfig().MaxTokens
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultGeneratorConfig().RequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &Generator{
		bus:           b,
		inSubject:     inSubject,
		outSubject:    outSubject,
		statusSubject: statusSubject,
		provider:      provider,
		cfg:           cfg,
		logger:        logger.With("component", "node.generator"),
		limiter:       limiter,
	}
}

// WithArchive records every successful exchange to the archive.
func (g *Generator) WithArchive(a *memory.Archive) *Generator {
	g.archive = a
	return g
}

// WithRecent folds the recent exchanges into the prompt and appends new ones.
func (g *Generator) WithRecent(r memory.Recent) *Generator {
	g.recent = r
	return g
}

// WithProfile folds the coachee profile into the system prompt.
func (g *Generator) WithProfile(p *memory.Profile) *Generator {
	g.profile = p
	return g
}

// Run consumes utterances until the context ends.
func (g *Generator) Run(ctx context.Context) error {
	publishStatus(g.bus, g.statusSubject, "generator", StateStarting, "")
	defer publishStatus(g.bus, g.statusSubject, "generator", StateStopped, "")

	queue := make(chan *protocol.Utterance, queueSize)

	sub, err := g.bus.Subscribe(g.inSubject, func(data []byte) {
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			g.logger.Warn("bad message on input subject", "error", err)
			return
		}
		u, err := msg.GetUtterance()
		if err != nil {
			g.logger.Warn("bad utterance payload", "error", err)
			return
		}
		select {
		case queue <- u:
		default:
			g.logger.Warn("queue full, dropping utterance", "id", u.ID)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	publishStatus(g.bus, g.statusSubject, "generator", StateReady, "")
	g.logger.Info("generator ready", "max_tokens", g.cfg.MaxTokens)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-queue:
			g.handle(ctx, u)
		}
	}
}

// handle runs one pipeline pass: one generation call, one publish.
func (g *Generator) handle(ctx context.Context, u *protocol.Utterance) {
	// Empty text produces zero generation calls.
	if strings.TrimSpace(u.Text) == "" {
		g.logger.Debug("skipping empty utterance", "id", u.ID)
		return
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	resp, err := g.provider.Chat(callCtx, &inference.ChatRequest{
		Messages:    g.buildMessages(callCtx, u.Text),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		// Unrecovered fault for this pass; the node keeps serving.
		g.logger.Error("generation failed", "id", u.ID, "error", err)
		return
	}

	reply := resp.Message.Content

	msg, err := protocol.NewResponseMessage(reply, *u)
	if err != nil {
		g.logger.Error("build response failed", "id", u.ID, "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		g.logger.Error("encode response failed", "id", u.ID, "error", err)
		return
	}
	if err := g.bus.Publish(g.outSubject, data); err != nil {
		g.logger.Error("publish response failed", "id", u.ID, "error", err)
		return
	}

	g.logger.Info("generated reply",
		"id", u.ID,
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"latency_ms", resp.LatencyMs,
	)

	g.remember(ctx, u, reply)
}

// buildMessages assembles system prompt, recent context and the utterance.
func (g *Generator) buildMessages(ctx context.Context, text string) []inference.Message {
	system := g.cfg.SystemPrompt
	if g.profile != nil {
		if rendered := g.profile.Render(); rendered != "" {
			system += "\n\n" + rendered
		}
	}

	messages := []inference.Message{inference.NewSystemMessage(system)}

	if g.recent != nil {
		if history, err := g.recent.List(ctx); err == nil {
			// Stored newest first; replay oldest first.
			for i := len(history) - 1; i >= 0; i-- {
				messages = append(messages,
					inference.NewUserMessage(history[i].Prompt),
					inference.NewAssistantMessage(history[i].Reply),
				)
			}
		} else {
			g.logger.Warn("recent context unavailable", "error", err)
		}
	}

	return append(messages, inference.NewUserMessage(text))
}

// remember records the exchange; failures are logged, never fatal.
func (g *Generator) remember(ctx context.Context, u *protocol.Utterance, reply string) {
	ex := memory.Exchange{
		UtteranceID: u.ID,
		Prompt:      u.Text,
		Reply:       reply,
		CreatedAt:   time.Now().UTC(),
	}

	if g.archive != nil {
		if err := g.archive.Record(ctx, ex); err != nil {
			g.logger.Warn("archive write failed", "error", err)
		}
	}
	if g.recent != nil {
		if err := g.recent.Add(ctx, ex); err != nil {
			g.logger.Warn("recent context write failed", "error", err)
		}
	}
}
