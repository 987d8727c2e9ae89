package protocol

import (
	"time"

	"github.com/google/uuid"
)

// NewUtterance builds an utterance with a fresh ID and timestamp.
// The text is carried as-is; callers decide whether empty text is meaningful.
func NewUtterance(text, source string) Utterance {
	return Utterance{
		ID:        uuid.NewString(),
		Text:      text,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUtteranceMessage wraps fresh input text in a bus message.
func NewUtteranceMessage(text, source string) (*Message, error) {
	return NewMessage(TypeUtterance, NewUtterance(text, source))
}

// NewResponseMessage wraps generated reply text in a bus message. The reply
// gets its own ID and records the utterance it answers.
func NewResponseMessage(replyText string, inReplyTo Utterance) (*Message, error) {
	return NewMessage(TypeResponse, Utterance{
		ID:        uuid.NewString(),
		Text:      replyText,
		Source:    "generator",
		CreatedAt: time.Now().UTC(),
		ReplyTo:   inReplyTo.ID,
	})
}

// NewSpokenMessage announces a rendered and played reply.
func NewSpokenMessage(s Spoken) (*Message, error) {
	return NewMessage(TypeSpoken, s)
}

// NewStatusMessage builds a node lifecycle notice.
func NewStatusMessage(node, state, detail string) (*Message, error) {
	return NewMessage(TypeStatus, Status{Node: node, State: state, Detail: detail})
}
