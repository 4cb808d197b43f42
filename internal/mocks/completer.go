package mocks

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

var firstCandidate = regexp.MustCompile(`availablePlayers: \[\{"longName":"((?:[^"\\]|\\.)*)"`)

// MockCompleter answers advice prompts without a completion service by
// recommending the first available player in the prompt.
type MockCompleter struct {
	mu      sync.Mutex
	prompts []string

	// Reply overrides the generated answer when set
	Reply string
	// Err is returned instead of a reply when set
	Err error
}

// NewMockCompleter creates a mock completer
func NewMockCompleter() *MockCompleter {
	logger.Info("Using MOCK completion service for local development")
	return &MockCompleter{}
}

// Complete records the prompt and returns a suggestion
func (m *MockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}

	name := "Unknown"
	if match := firstCandidate.FindStringSubmatch(prompt); match != nil {
		var s string
		if err := json.Unmarshal([]byte(`"`+match[1]+`"`), &s); err == nil {
			name = s
		}
	}
	reply, _ := json.Marshal(map[string]string{
		"longName": name,
		"overview": "Highest ranked player still on your board. Waiting risks losing the value.",
	})
	return string(reply), nil
}

// Prompts returns every prompt received
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
