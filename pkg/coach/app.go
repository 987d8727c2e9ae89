package coach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/M2Elsanosi/NextGen-Coach/internal/config"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/audio"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/hub"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/inference"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/memory"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/node"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/web"
)

// Nodes selects which pipeline stages an App runs.
type Nodes struct {
	Relay     bool
	Generator bool
	Speaker   bool
}

// AllNodes runs the full pipeline in one process.
func AllNodes() Nodes {
	return Nodes{Relay: true, Generator: true, Speaker: true}
}

// App owns the broker connection, providers, stores, and nodes.
type App struct {
	cfg    Config
	nodes  Nodes
	logger *slog.Logger

	// RelaySource feeds the input relay. Defaults to os.Stdin.
	RelaySource io.Reader

	embedded *bus.EmbeddedServer
	client   *bus.Client

	llm    inference.Provider
	speech tts.Provider
	player *audio.Player

	archive *memory.Archive
	recent  memory.Recent
	profile *memory.Profile

	web *web.Server
}

// New creates an App. Call Init before Run.
func New(cfg Config, nodes Nodes, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:         cfg,
		nodes:       nodes,
		logger:      logger.With("component", "coach"),
		RelaySource: os.Stdin,
	}
}

// Init connects the bus and builds every component the selected nodes need.
func (a *App) Init(ctx context.Context) error {
	url := a.cfg.Bus.URL
	if a.cfg.Bus.Embedded {
		a.embedded = bus.NewEmbeddedServer("127.0.0.1", a.cfg.Bus.EmbeddedPort)
		if err := a.embedded.Start(); err != nil {
			return fmt.Errorf("start embedded broker: %w", err)
		}
		url = a.embedded.ClientURL()
		a.logger.Info("embedded broker up", "url", url)
	}

	busCfg := bus.DefaultConfig()
	busCfg.URL = url
	busCfg.Prefix = a.cfg.Bus.Prefix

	client, err := bus.New(busCfg, a.logger)
	if err != nil {
		return fmt.Errorf("bus client: %w", err)
	}
	if err := client.ConnectWithRetry(ctx); err != nil {
		return fmt.Errorf("connect bus: %w", err)
	}
	a.client = client

	if a.nodes.Generator {
		if a.llm, err = a.buildInference(); err != nil {
			return err
		}
		if err := a.buildMemory(ctx); err != nil {
			return err
		}
	}

	if a.nodes.Speaker {
		if a.speech, err = a.buildSpeech(); err != nil {
			return err
		}
		if a.player, err = a.buildPlayer(); err != nil {
			return err
		}
	}

	if a.cfg.Web.Enabled {
		a.web = web.NewServer(a.cfg.Web.Addr, a.logger)
		a.web.StatsFunc = a.client.Stats
		a.web.SayFunc = a.Say
	}

	return nil
}

// Run starts the selected nodes and blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("app not initialized")
	}

	topics := a.client.Topics()
	var wg sync.WaitGroup

	if a.web != nil {
		a.web.StartAsync()
		if err := a.bridgeEvents(topics); err != nil {
			return fmt.Errorf("bridge events: %w", err)
		}
	}

	if a.nodes.Generator {
		genCfg := node.DefaultGeneratorConfig()
		genCfg.MaxTokens = a.cfg.Generation.MaxTokens
		genCfg.Temperature = a.cfg.Generation.Temperature
		genCfg.RequestTimeout = a.cfg.Generation.RequestTimeout()
		genCfg.RequestsPerMinute = a.cfg.Generation.RequestsPerMinute
		if a.cfg.Generation.SystemPrompt != "" {
			genCfg.SystemPrompt = a.cfg.Generation.SystemPrompt
		}

		g := node.NewGenerator(a.client, topics.Input(), topics.Response(), topics.Status(), a.llm, genCfg, a.logger)
		if a.archive != nil {
			g = g.WithArchive(a.archive)
		}
		if a.recent != nil {
			g = g.WithRecent(a.recent)
		}
		if a.profile != nil {
			g = g.WithProfile(a.profile)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("generator stopped", "error", err)
			}
		}()
	}

	if a.nodes.Speaker {
		spkCfg := node.DefaultSpeakerConfig()
		spkCfg.KeepClips = a.cfg.Speech.KeepClips

		s := node.NewSpeaker(a.client, topics.Response(), topics.Spoken(), topics.Status(), a.speech, a.player, spkCfg, a.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("speaker stopped", "error", err)
			}
		}()
	}

	if a.nodes.Relay {
		r := node.NewRelay(a.client, topics.Input(), topics.Status(), a.RelaySource, "stdin", a.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("relay stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Say publishes one utterance on the input subject.
func (a *App) Say(text string) error {
	if a.client == nil {
		return fmt.Errorf("app not initialized")
	}
	msg, err := protocol.NewUtteranceMessage(text, "api")
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return a.client.Publish(a.client.Topics().Input(), data)
}

// Bus exposes the connected client for auxiliary commands.
func (a *App) Bus() *bus.Client {
	return a.client
}

// Shutdown releases every resource Init acquired.
func (a *App) Shutdown() {
	if a.web != nil {
		if err := a.web.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.speech != nil {
		a.speech.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
	if a.recent != nil {
		a.recent.Close()
	}
	if a.archive != nil {
		a.archive.Close()
	}
	if a.profile != nil {
		if err := a.profile.Save(); err != nil {
			a.logger.Warn("profile save", "error", err)
		}
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.embedded != nil {
		a.embedded.Shutdown()
	}
}

// bridgeEvents mirrors pipeline subjects into the dashboard event stream.
func (a *App) bridgeEvents(topics *bus.Topics) error {
	events := a.web.Events()

	forward := func(topic, subject string) error {
		_, err := a.client.Subscribe(subject, func(data []byte) {
			events.Broadcast(hub.NewEvent(topic, data))

			msg, err := protocol.ParseMessage(data)
			if err != nil {
				return
			}
			switch msg.Type {
			case protocol.TypeUtterance:
				if u, err := msg.GetUtterance(); err == nil && u.Source != "api" {
					a.web.AddConversation("user", u.Text)
				}
			case protocol.TypeResponse:
				if u, err := msg.GetUtterance(); err == nil {
					a.web.AddConversation("coach", u.Text)
				}
			}
		})
		return err
	}

	if err := forward("input", topics.Input()); err != nil {
		return err
	}
	if err := forward("response", topics.Response()); err != nil {
		return err
	}
	if err := forward("spoken", topics.Spoken()); err != nil {
		return err
	}
	return forward("status", topics.Status())
}

func (a *App) buildInference() (inference.Provider, error) {
	common := []inference.Option{
		inference.WithLogger(a.logger),
		inference.WithMaxTokens(a.cfg.Generation.MaxTokens),
		inference.WithTemperature(a.cfg.Generation.Temperature),
		inference.WithTimeout(a.cfg.Generation.RequestTimeout()),
	}
	if a.cfg.Generation.Model != "" {
		common = append(common, inference.WithModel(a.cfg.Generation.Model))
	}

	var providers []inference.Provider
	for _, name := range a.cfg.Generation.Providers {
		var (
			p   inference.Provider
			err error
		)
		switch name {
		case "openai":
			p, err = inference.NewOpenAI(append(common, inference.WithAPIKey(config.OpenAIKey()))...)
		case "anthropic":
			p, err = inference.NewAnthropic(append(common, inference.WithAPIKey(config.AnthropicKey()))...)
		case "huggingface":
			p, err = inference.NewHuggingFace(append(common, inference.WithAPIKey(config.HuggingFaceKey()))...)
		default:
			err = fmt.Errorf("unknown generation provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return inference.NewChainWithLogger(a.logger, providers...)
}

func (a *App) buildSpeech() (tts.Provider, error) {
	common := []tts.Option{
		tts.WithLogger(a.logger),
		tts.WithFolder(a.cfg.Speech.Folder),
		tts.WithLanguage(a.cfg.Speech.Language),
	}

	var providers []tts.Provider
	for _, name := range a.cfg.Speech.Engines {
		var (
			p   tts.Provider
			err error
		)
		switch name {
		case "googletranslate":
			p, err = tts.NewGoogleTranslate(common...)
		case "elevenlabs":
			opts := append(common, tts.WithAPIKey(config.ElevenLabsKey()))
			if a.cfg.Speech.VoiceID != "" {
				opts = append(opts, tts.WithVoice(a.cfg.Speech.VoiceID))
			}
			p, err = tts.NewElevenLabs(opts...)
		case "openai":
			p, err = tts.NewOpenAITTS(append(common, tts.WithAPIKey(config.OpenAIKey()))...)
		default:
			err = fmt.Errorf("unknown speech engine %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return tts.NewChainWithLogger(a.logger, providers...)
}

func (a *App) buildPlayer() (*audio.Player, error) {
	if a.cfg.Speech.Player != "" {
		return audio.NewPlayer(a.cfg.Speech.Player, a.logger)
	}
	command, _, err := audio.DetectPlayer()
	if err != nil {
		return nil, err
	}
	return audio.NewPlayer(command, a.logger)
}

func (a *App) buildMemory(ctx context.Context) error {
	if a.cfg.Memory.ArchivePath != "" {
		archive, err := memory.NewArchive(a.cfg.Memory.ArchivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		a.archive = archive
	}

	if a.cfg.Memory.RedisAddr != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		recent, err := memory.NewRedisRecent(connectCtx, a.cfg.Memory.RedisAddr,
			a.cfg.Memory.RedisPassword, a.cfg.Memory.RedisDB, a.cfg.Memory.RedisSize)
		cancel()
		if err != nil {
			// Degrade rather than refuse to start.
			a.logger.Warn("redis unavailable, recent context disabled", "error", err)
		} else {
			a.recent = recent
		}
	}

	if a.cfg.Memory.ProfilePath != "" {
		profile, err := memory.LoadProfile(a.cfg.Memory.ProfilePath)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		a.profile = profile
	}

	return nil
}
