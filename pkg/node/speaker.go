package node

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/audio"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
)

// SpeakerConfig tunes the speech stage.
type SpeakerConfig struct {
	// KeepClips retains rendered files instead of removing them after
	// playback. Useful for debugging.
	KeepClips bool

	// RenderTimeout bounds one synthesis call.
	RenderTimeout time.Duration
}

// DefaultSpeakerConfig returns sensible defaults.
func DefaultSpeakerConfig() SpeakerConfig {
	return SpeakerConfig{
		RenderTimeout: 30 * time.Second,
	}
}

// Speaker subscribes to the response subject. Each response gets exactly
// one render call then exactly one playback call, in that order, followed
// by a spoken notice. A failed render or playback ends that pass.
type Speaker struct {
	bus           Bus
	inSubject     string
	spokenSubject string
	statusSubject string
	provider      tts.Provider
	player        *audio.Player
	cfg           SpeakerConfig
	logger        *slog.Logger
}

// NewSpeaker creates the speech stage.
func NewSpeaker(b Bus, inSubject, spokenSubject, statusSubject string, provider tts.Provider, player *audio.Player, cfg SpeakerConfig, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultSpeakerConfig().RenderTimeout
	}

	return &Speaker{
		bus:           b,
		inSubject:     inSubject,
		spokenSubject: spokenSubject,
		statusSubject: statusSubject,
		provider:      provider,
		player:        player,
		cfg:           cfg,
		logger:        logger.With("component", "node.speaker"),
	}
}

// Run consumes responses until the context ends.
func (s *Speaker) Run(ctx context.Context) error {
	publishStatus(s.bus, s.statusSubject, "speaker", StateStarting, "")
	defer publishStatus(s.bus, s.statusSubject, "speaker", StateStopped, "")

	queue := make(chan *protocol.Utterance, queueSize)

	sub, err := s.bus.Subscribe(s.inSubject, func(data []byte) {
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			s.logger.Warn("bad message on response subject", "error", err)
			return
		}
		u, err := msg.GetUtterance()
		if err != nil {
			s.logger.Warn("bad response payload", "error", err)
			return
		}
		select {
		case queue <- u:
		default:
			s.logger.Warn("queue full, dropping response", "id", u.ID)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	publishStatus(s.bus, s.statusSubject, "speaker", StateReady, "")
	s.logger.Info("speaker ready", "player", s.player.Command())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-queue:
			s.handle(ctx, u)
		}
	}
}

// handle runs one pass: render, play, announce, clean up.
func (s *Speaker) handle(ctx context.Context, u *protocol.Utterance) {
	renderCtx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	clip, err := s.provider.Synthesize(renderCtx, u.Text)
	cancel()
	if err != nil {
		// Unrecovered fault for this pass; the node keeps serving.
		s.logger.Error("render failed", "id", u.ID, "error", err)
		return
	}

	playStart := time.Now()
	if err := s.player.Play(ctx, clip.Path); err != nil {
		s.logger.Error("playback failed", "id", u.ID, "path", clip.Path, "error", err)
		s.cleanup(clip.Path)
		return
	}
	playedMs := time.Since(playStart).Milliseconds()

	spoken := protocol.Spoken{
		UtteranceID: u.ID,
		Text:        u.Text,
		Engine:      clip.Engine,
		CharCount:   clip.CharCount,
		DurationMs:  playedMs,
	}
	if s.cfg.KeepClips {
		spoken.Path = clip.Path
	}

	if msg, err := protocol.NewSpokenMessage(spoken); err == nil {
		if data, err := msg.Bytes(); err == nil {
			if err := s.bus.Publish(s.spokenSubject, data); err != nil {
				s.logger.Warn("publish spoken notice failed", "error", err)
			}
		}
	}

	s.logger.Info("spoke reply",
		"id", u.ID,
		"engine", clip.Engine,
		"chars", clip.CharCount,
		"render_ms", clip.LatencyMs,
		"play_ms", playedMs,
	)

	if !s.cfg.KeepClips {
		s.cleanup(clip.Path)
	}
}

// cleanup removes a rendered clip.
func (s *Speaker) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("clip cleanup failed", "path", path, "error", err)
	}
}
