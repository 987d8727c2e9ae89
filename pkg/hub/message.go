// Package hub fans coach pipeline events out to websocket clients
// using the channel-based broadcast pattern.
package hub

import "encoding/json"

// Event is one pipeline occurrence pushed to dashboard clients:
// an utterance heard, a reply generated, a clip spoken, or a node
// status change.
type Event struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// NewEvent wraps an already-encoded payload under a topic.
func NewEvent(topic string, data []byte) Event {
	return Event{Topic: topic, Data: data}
}
