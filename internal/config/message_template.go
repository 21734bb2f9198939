package config

import (
	"fmt"
	"strings"
	"time"
)

// MessageTemplate is a commit message pattern with {timestamp} and {run} placeholders
type MessageTemplate string

// DefaultMessageTemplate is the default commit message pattern
const DefaultMessageTemplate MessageTemplate = "Update full-text feed {timestamp} (run {run})"

// NewMessageTemplate creates a new MessageTemplate from a string.
// Returns an error if the pattern is invalid (doesn't contain {timestamp}).
func NewMessageTemplate(pattern string) (MessageTemplate, error) {
	if pattern == "" {
		return DefaultMessageTemplate, nil
	}
	if !strings.Contains(pattern, "{timestamp}") {
		return "", fmt.Errorf("commit message template must contain {timestamp} placeholder")
	}
	return MessageTemplate(pattern), nil
}

// String returns the string representation of the template
func (m MessageTemplate) String() string {
	if m == "" {
		return string(DefaultMessageTemplate)
	}
	return string(m)
}

// IsValid checks if the template contains {timestamp}
func (m MessageTemplate) IsValid() bool {
	return strings.Contains(string(m), "{timestamp}")
}

// Render fills the placeholders. The timestamp is rendered in UTC, RFC3339.
// A pattern without {run} gets " (run <id>)" appended.
func (m MessageTemplate) Render(now time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	pattern := m.String()
	if short != "" && !strings.Contains(pattern, "{run}") {
		pattern += " (run {run})"
	}
	replacer := strings.NewReplacer(
		"{timestamp}", now.UTC().Format(time.RFC3339),
		"{date}", now.UTC().Format("2006-01-02"),
		"{run}", short,
	)
	return replacer.Replace(pattern)
}
