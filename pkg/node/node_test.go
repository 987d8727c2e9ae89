package node

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/audio"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/inference"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/tts"
)

// fakeBus is an in-process Bus delivering synchronously to subscribers.
type fakeBus struct {
	mu        sync.Mutex
	handlers  map[string][]func([]byte)
	published map[string][][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		handlers:  make(map[string][]func([]byte)),
		published: make(map[string][][]byte),
	}
}

func (f *fakeBus) Publish(subject string, data []byte) error {
	f.mu.Lock()
	f.published[subject] = append(f.published[subject], data)
	handlers := append([]func([]byte){}, f.handlers[subject]...)
	f.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (f *fakeBus) Subscribe(subject string, handler func(data []byte)) (bus.Subscription, error) {
	f.mu.Lock()
	f.handlers[subject] = append(f.handlers[subject], handler)
	f.mu.Unlock()
	return fakeSub{}, nil
}

func (f *fakeBus) count(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[subject])
}

func (f *fakeBus) last(subject string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.published[subject]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

type fakeSub struct{}

func (fakeSub) Unsubscribe() error { return nil }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func publishUtterance(t *testing.T, b *fakeBus, subject, text string) {
	t.Helper()
	msg, err := protocol.NewUtteranceMessage(text, "test")
	if err != nil {
		t.Fatal(err)
	}
	data, err := msg.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(subject, data); err != nil {
		t.Fatal(err)
	}
}

func startGenerator(t *testing.T, b *fakeBus, provider inference.Provider) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGenerator(b, "in", "out", "status", provider, DefaultGeneratorConfig(), nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx)
	}()
	t.Cleanup(func() { cancel(); <-done })

	// Wait for the subscription before publishing.
	waitFor(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.handlers["in"]) > 0
	})
	return cancel
}

func TestRelayForwardsLinesUnchanged(t *testing.T) {
	b := newFakeBus()
	input := "How are you today?\n\nsecond line\n"

	r := NewRelay(b, "in", "status", strings.NewReader(input), "stdin", nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Three lines in, three utterances out, blank line included.
	if got := b.count("in"); got != 3 {
		t.Fatalf("expected 3 forwarded utterances, got %d", got)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	wantTexts := []string{"How are you today?", "", "second line"}
	for i, data := range b.published["in"] {
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			t.Fatalf("ParseMessage() error = %v", err)
		}
		u, err := msg.GetUtterance()
		if err != nil {
			t.Fatalf("GetUtterance() error = %v", err)
		}
		if u.Text != wantTexts[i] {
			t.Errorf("utterance %d text = %q, want %q", i, u.Text, wantTexts[i])
		}
		if u.ID == "" {
			t.Errorf("utterance %d missing ID", i)
		}
	}
}

func TestGeneratorExactlyOneCallPerUtterance(t *testing.T) {
	b := newFakeBus()
	mock := inference.NewMock()
	startGenerator(t, b, mock)

	publishUtterance(t, b, "in", "How are you today?")

	waitFor(t, func() bool { return b.count("out") == 1 })

	if got := mock.CallCount("Chat"); got != 1 {
		t.Errorf("expected exactly 1 generation call, got %d", got)
	}

	msg, err := protocol.ParseMessage(b.last("out"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Type != protocol.TypeResponse {
		t.Errorf("expected response message, got %s", msg.Type)
	}
	u, err := msg.GetUtterance()
	if err != nil {
		t.Fatalf("GetUtterance() error = %v", err)
	}
	if u.ReplyTo == "" {
		t.Error("expected reply_to to reference the originating utterance")
	}
	if u.Text == "" {
		t.Error("expected reply text")
	}
}

func TestGeneratorSkipsEmptyUtterances(t *testing.T) {
	b := newFakeBus()
	mock := inference.NewMock()
	startGenerator(t, b, mock)

	publishUtterance(t, b, "in", "")
	publishUtterance(t, b, "in", "   ")

	// Give the consumer a moment; nothing should come out.
	time.Sleep(100 * time.Millisecond)
	if got := mock.CallCount("Chat"); got != 0 {
		t.Errorf("expected 0 generation calls for empty text, got %d", got)
	}
	if got := b.count("out"); got != 0 {
		t.Errorf("expected 0 responses, got %d", got)
	}
}

func TestGeneratorFailurePublishesNothing(t *testing.T) {
	b := newFakeBus()
	failing := inference.WithError(errors.New("backend down"))
	startGenerator(t, b, failing)

	publishUtterance(t, b, "in", "How are you today?")

	waitFor(t, func() bool { return failing.CallCount("Chat") == 1 })
	time.Sleep(50 * time.Millisecond)

	if got := b.count("out"); got != 0 {
		t.Errorf("failed pass should publish nothing, got %d messages", got)
	}
}

func startSpeaker(t *testing.T, b *fakeBus, provider tts.Provider, cfg SpeakerConfig) *audio.Player {
	t.Helper()
	player, err := audio.NewPlayer("true", nil)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSpeaker(b, "out", "spoken", "status", provider, player, cfg, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	t.Cleanup(func() { cancel(); <-done })

	waitFor(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.handlers["out"]) > 0
	})
	return player
}

func TestSpeakerRendersThenPlaysThenCleansUp(t *testing.T) {
	b := newFakeBus()
	mock := tts.NewMock()
	mock.Folder = t.TempDir()

	var clipPath string
	inner := mock.SynthesizeFunc
	mock.SynthesizeFunc = func(ctx context.Context, text string) (*tts.Clip, error) {
		clip, err := inner(ctx, text)
		if clip != nil {
			clipPath = clip.Path
		}
		return clip, err
	}

	startSpeaker(t, b, mock, DefaultSpeakerConfig())

	publishUtterance(t, b, "out", "Doing great, thanks.")

	waitFor(t, func() bool { return b.count("spoken") == 1 })

	if got := mock.CallCount("Synthesize"); got != 1 {
		t.Errorf("expected exactly 1 render call, got %d", got)
	}

	msg, err := protocol.ParseMessage(b.last("spoken"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	spoken, err := msg.GetSpoken()
	if err != nil {
		t.Fatalf("GetSpoken() error = %v", err)
	}
	if spoken.Engine != "mock" {
		t.Errorf("expected engine mock, got %s", spoken.Engine)
	}

	// Clip removed after playback.
	waitFor(t, func() bool {
		_, err := os.Stat(clipPath)
		return os.IsNotExist(err)
	})
}

func TestSpeakerKeepClips(t *testing.T) {
	b := newFakeBus()
	mock := tts.NewMock()
	mock.Folder = t.TempDir()

	cfg := DefaultSpeakerConfig()
	cfg.KeepClips = true
	startSpeaker(t, b, mock, cfg)

	publishUtterance(t, b, "out", "Keep this one.")

	waitFor(t, func() bool { return b.count("spoken") == 1 })

	msg, _ := protocol.ParseMessage(b.last("spoken"))
	spoken, err := msg.GetSpoken()
	if err != nil {
		t.Fatalf("GetSpoken() error = %v", err)
	}
	if spoken.Path == "" {
		t.Fatal("expected clip path in spoken notice")
	}
	if _, err := os.Stat(spoken.Path); err != nil {
		t.Errorf("expected clip retained on disk: %v", err)
	}
}

func TestSpeakerRenderFailureEndsPass(t *testing.T) {
	b := newFakeBus()
	failing := tts.WithError(errors.New("render down"))
	player := startSpeaker(t, b, failing, DefaultSpeakerConfig())

	var played bool
	player.OnPlaybackStart = func() { played = true }

	publishUtterance(t, b, "out", "This will not be spoken.")

	waitFor(t, func() bool { return failing.CallCount("Synthesize") == 1 })
	time.Sleep(50 * time.Millisecond)

	if played {
		t.Error("failed render should produce zero playback calls")
	}
	if got := b.count("spoken"); got != 0 {
		t.Errorf("failed pass should publish nothing, got %d messages", got)
	}
}

// TestPipelineOrder wires generator and speaker together and checks the
// single-pass ordering: one generation call then one render call.
func TestPipelineOrder(t *testing.T) {
	b := newFakeBus()

	var mu sync.Mutex
	var order []string

	llm := inference.NewMock()
	innerChat := llm.ChatFunc
	llm.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		mu.Lock()
		order = append(order, "generate")
		mu.Unlock()
		return innerChat(ctx, req)
	}

	speech := tts.NewMock()
	speech.Folder = t.TempDir()
	innerSynth := speech.SynthesizeFunc
	speech.SynthesizeFunc = func(ctx context.Context, text string) (*tts.Clip, error) {
		mu.Lock()
		order = append(order, "render")
		mu.Unlock()
		return innerSynth(ctx, text)
	}

	startGenerator(t, b, llm)
	startSpeaker(t, b, speech, DefaultSpeakerConfig())

	publishUtterance(t, b, "in", "How are you today?")

	waitFor(t, func() bool { return b.count("spoken") == 1 })

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "generate" || order[1] != "render" {
		t.Errorf("expected [generate render], got %v", order)
	}
}
