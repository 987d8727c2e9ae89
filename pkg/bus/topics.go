package bus

import "fmt"

// Subject constants for the coach pipeline.
// All subjects are prefixed with the configured prefix (default: "coach").

// SubjectInput is the user input channel.
// Publishes: protocol.Utterance JSON with raw input text
const SubjectInput = "input"

// SubjectResponse is the generated reply channel.
// Publishes: protocol.Utterance JSON with the reply text
const SubjectResponse = "response"

// SubjectSpoken is the rendered speech notification channel.
// Publishes: protocol.Spoken JSON after playback completes
const SubjectSpoken = "spoken"

// SubjectStatus is the node lifecycle channel.
// Publishes: protocol.Status JSON on start, ready and stop
const SubjectStatus = "status"

// Topics is a helper to build fully-qualified subject names.
type Topics struct {
	prefix string
}

// NewTopics creates a Topics helper with the given prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

// Input returns the full input subject.
func (t *Topics) Input() string {
	return fmt.Sprintf("%s.%s", t.prefix, SubjectInput)
}

// Response returns the full response subject.
func (t *Topics) Response() string {
	return fmt.Sprintf("%s.%s", t.prefix, SubjectResponse)
}

// Spoken returns the full spoken subject.
func (t *Topics) Spoken() string {
	return fmt.Sprintf("%s.%s", t.prefix, SubjectSpoken)
}

// Status returns the full status subject.
func (t *Topics) Status() string {
	return fmt.Sprintf("%s.%s", t.prefix, SubjectStatus)
}

// All returns every pipeline subject, in pipeline order.
func (t *Topics) All() []string {
	return []string{t.Input(), t.Response(), t.Spoken(), t.Status()}
}
