// Package audio plays rendered clips through an external command-line
// player. Playback is one external program invocation per clip; the process
// is killed when the context ends.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// ErrNoPlayer is returned when no playback binary can be found.
var ErrNoPlayer = errors.New("audio: no playback command found")

// DefaultTimeout bounds a single playback invocation.
const DefaultTimeout = 60 * time.Second

// knownPlayers are tried in order by DetectPlayer. Arguments keep each
// player quiet and make it exit when the clip ends.
var knownPlayers = []struct {
	command string
	args    []string
}{
	{"mpg123", []string{"-q"}},
	{"mplayer", []string{"-really-quiet"}},
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{"mpv", []string{"--no-video", "--really-quiet"}},
	{"afplay", nil},
	{"cvlc", []string{"--play-and-exit", "-q"}},
}

// Player runs an external program to play one clip at a time.
type Player struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	mu      sync.Mutex
	playing bool
}

// NewPlayer creates a player that invokes the given command.
// An empty command auto-detects an installed player.
func NewPlayer(command string, logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audio.player")

	var args []string
	if command == "" {
		detected, detectedArgs, err := DetectPlayer()
		if err != nil {
			return nil, err
		}
		command, args = detected, detectedArgs
		logger.Debug("detected player", "command", command)
	} else {
		// Explicit commands still get the known quiet flags.
		for _, p := range knownPlayers {
			if p.command == command {
				args = p.args
				break
			}
		}
		if _, err := exec.LookPath(command); err != nil {
			return nil, fmt.Errorf("%w: %q not in PATH", ErrNoPlayer, command)
		}
	}

	return &Player{
		command: command,
		args:    args,
		timeout: DefaultTimeout,
		logger:  logger,
	}, nil
}

// DetectPlayer finds the first known playback binary in PATH.
func DetectPlayer() (string, []string, error) {
	for _, p := range knownPlayers {
		if _, err := exec.LookPath(p.command); err == nil {
			return p.command, p.args, nil
		}
	}
	return "", nil, ErrNoPlayer
}

// SetTimeout overrides the playback timeout.
func (p *Player) SetTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// Command returns the playback command name.
func (p *Player) Command() string {
	return p.command
}

// IsPlaying reports whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play runs the playback command on the given file and blocks until it
// exits or the context ends. Context cancellation kills the process.
func (p *Player) Play(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("audio: empty clip path")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.args...), path)
	cmd := exec.CommandContext(ctx, p.command, args...)

	p.setPlaying(true)
	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	defer func() {
		p.setPlaying(false)
		if p.OnPlaybackEnd != nil {
			p.OnPlaybackEnd()
		}
	}()

	start := time.Now()
	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("audio: playback interrupted: %w", ctxErr)
	}
	if err != nil {
		return fmt.Errorf("audio: %s failed: %w", p.command, err)
	}

	p.logger.Debug("played clip",
		"path", path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Player) setPlaying(v bool) {
	p.mu.Lock()
	p.playing = v
	p.mu.Unlock()
}
