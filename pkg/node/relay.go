package node

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
)

// Relay reads text lines from an input source and publishes each one
// unchanged as an utterance on the input subject. One outbound message per
// inbound line; no validation, no transformation.
type Relay struct {
	bus           Bus
	subject       string
	statusSubject string
	source        io.Reader
	sourceName    string
	logger        *slog.Logger
}

// NewRelay creates a relay reading from source. sourceName labels the
// utterances ("stdin", "web", ...).
func NewRelay(b Bus, subject, statusSubject string, source io.Reader, sourceName string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		bus:           b,
		subject:       subject,
		statusSubject: statusSubject,
		source:        source,
		sourceName:    sourceName,
		logger:        logger.With("component", "node.relay"),
	}
}

// Run forwards lines until the source is exhausted or the context ends.
func (r *Relay) Run(ctx context.Context) error {
	publishStatus(r.bus, r.statusSubject, "relay", StateStarting, "")
	defer publishStatus(r.bus, r.statusSubject, "relay", StateStopped, "")

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.source)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	publishStatus(r.bus, r.statusSubject, "relay", StateReady, "")
	r.logger.Info("relay ready", "source", r.sourceName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				r.logger.Info("input source exhausted")
				return nil
			}
			if err := r.forward(line); err != nil {
				r.logger.Error("forward failed", "error", err)
			}
		}
	}
}

// forward publishes one line as an utterance.
func (r *Relay) forward(line string) error {
	msg, err := protocol.NewUtteranceMessage(line, r.sourceName)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := r.bus.Publish(r.subject, data); err != nil {
		return err
	}
	r.logger.Debug("forwarded utterance", "chars", len(line))
	return nil
}
