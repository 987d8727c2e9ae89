// Package memory persists what the pipeline has said and to whom.
//
// Three stores, each optional:
//   - Archive: every completed exchange, in SQLite.
//   - Recent: the last N exchanges, in Redis, folded into the next prompt.
//   - Profile: facts about the coachee, in a JSON file.
package memory

import "time"

// Exchange is one completed (utterance, reply) pair.
type Exchange struct {
	UtteranceID string    `json:"utterance_id"`
	Prompt      string    `json:"prompt"`
	Reply       string    `json:"reply"`
	CreatedAt   time.Time `json:"created_at"`
}
