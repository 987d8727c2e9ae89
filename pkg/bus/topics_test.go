package bus

import "testing"

func TestTopicsBuildSubjects(t *testing.T) {
	topics := NewTopics("coach")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"input", topics.Input(), "coach.input"},
		{"response", topics.Response(), "coach.response"},
		{"spoken", topics.Spoken(), "coach.spoken"},
		{"status", topics.Status(), "coach.status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopicsCustomPrefix(t *testing.T) {
	topics := NewTopics("lab7")
	if got := topics.Input(); got != "lab7.input" {
		t.Errorf("Input() = %q, want %q", got, "lab7.input")
	}
}

func TestTopicsAllOrder(t *testing.T) {
	topics := NewTopics("coach")
	all := topics.All()

	want := []string{"coach.input", "coach.response", "coach.spoken", "coach.status"}
	if len(all) != len(want) {
		t.Fatalf("All() returned %d subjects, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i], want[i])
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing url", func(c *Config) { c.URL = "" }, true},
		{"missing prefix", func(c *Config) { c.Prefix = "" }, true},
		{"zero reconnect wait", func(c *Config) { c.ReconnectWait = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
