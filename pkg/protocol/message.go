// Package protocol defines the message types exchanged between pipeline
// stages over the bus. The envelope and every payload are plain JSON so any
// subscriber, including ones written in other languages, can decode them.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of bus message
type MessageType string

const (
	// TypeUtterance carries user input text from the relay.
	TypeUtterance MessageType = "utterance"

	// TypeResponse carries generated reply text.
	TypeResponse MessageType = "response"

	// TypeSpoken announces that a reply has been rendered and played.
	TypeSpoken MessageType = "spoken"

	// TypeStatus carries node lifecycle notices.
	TypeStatus MessageType = "status"
)

// Message is the base wrapper for all bus messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// Utterance is one unit of text moving through the pipeline. The relay
// creates it; the generator re-publishes it with the reply text. Text is the
// only semantic field, the rest is envelope metadata.
type Utterance struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"` // "stdin", "web", "cli"
	CreatedAt time.Time `json:"created_at"`

	// ReplyTo holds the originating utterance ID on response messages.
	ReplyTo string `json:"reply_to,omitempty"`
}

// Spoken describes a rendered and played reply. The audio itself is not
// carried on the bus, only where it was written and how it was produced.
type Spoken struct {
	UtteranceID string `json:"utterance_id"`
	Text        string `json:"text"`
	Path        string `json:"path,omitempty"` // empty once the clip is removed
	Engine      string `json:"engine"`
	CharCount   int    `json:"char_count"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

// Status carries a node lifecycle notice.
type Status struct {
	Node   string `json:"node"`  // "relay", "generator", "speaker"
	State  string `json:"state"` // "starting", "ready", "stopped"
	Detail string `json:"detail,omitempty"`
}

// GetUtterance extracts an Utterance payload
func (m *Message) GetUtterance() (*Utterance, error) {
	var u Utterance
	if err := m.ParseData(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetSpoken extracts a Spoken payload
func (m *Message) GetSpoken() (*Spoken, error) {
	var s Spoken
	if err := m.ParseData(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStatus extracts a Status payload
func (m *Message) GetStatus() (*Status, error) {
	var s Status
	if err := m.ParseData(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
