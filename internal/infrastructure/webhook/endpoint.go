package webhook

import "time"

// Payload formats.
const (
	FormatJSON  = "json"
	FormatSlack = "slack"
)

// Endpoint configures one outgoing webhook. It is read from the webhooks
// section of .teampulse/config.yaml.
type Endpoint struct {
	Name       string        `yaml:"name" json:"name"`
	URL        string        `yaml:"url" json:"url"`
	Secret     string        `yaml:"secret,omitempty" json:"secret,omitempty"`
	Format     string        `yaml:"format,omitempty" json:"format,omitempty"`
	Actions    []string      `yaml:"actions,omitempty" json:"actions,omitempty"` // empty = all
	MaxRetries int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Enabled    bool          `yaml:"enabled" json:"enabled"`
}

func (e Endpoint) accepts(action string) bool {
	if !e.Enabled {
		return false
	}
	if len(e.Actions) == 0 {
		return true
	}
	for _, a := range e.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// DeadLetter records a delivery that exhausted its retries.
type DeadLetter struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
	URL       string    `json:"url"`
	Action    string    `json:"action"`
	Payload   string    `json:"payload"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
}
