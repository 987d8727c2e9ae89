package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Profile is a small JSON document of facts about the person being
// coached. Its rendering is prepended to the generator's system prompt.
type Profile struct {
	path string

	mu      sync.RWMutex
	Name    string    `json:"name,omitempty"`
	Facts   []string  `json:"facts,omitempty"`
	Updated time.Time `json:"updated,omitempty"`
}

// LoadProfile reads the profile at path, or starts an empty one if the
// file does not exist yet.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// SetName records the coachee's name and saves.
func (p *Profile) SetName(name string) error {
	p.mu.Lock()
	p.Name = strings.TrimSpace(name)
	p.Updated = time.Now().UTC()
	p.mu.Unlock()
	return p.Save()
}

// AddFact appends a fact and saves. Empty facts are ignored.
func (p *Profile) AddFact(fact string) error {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return nil
	}

	p.mu.Lock()
	p.Facts = append(p.Facts, fact)
	p.Updated = time.Now().UTC()
	p.mu.Unlock()
	return p.Save()
}

// FactCount returns the number of stored facts.
func (p *Profile) FactCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.Facts)
}

// Render produces the prompt fragment describing the coachee.
// Returns "" when the profile is empty.
func (p *Profile) Render() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.Name == "" && len(p.Facts) == 0 {
		return ""
	}

	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "You are coaching %s.", p.Name)
	}
	if len(p.Facts) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("What you know about them:")
		for _, fact := range p.Facts {
			b.WriteString("\n- ")
			b.WriteString(fact)
		}
	}
	return b.String()
}

// Save writes the profile atomically (temp file then rename).
func (p *Profile) Save() error {
	if p.path == "" {
		return nil
	}

	p.mu.RLock()
	data, err := json.MarshalIndent(p, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}
