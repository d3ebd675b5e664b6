// Package watcher contains the DM polling loop: trigger matching, the
// retrying reply sender, and the cycle logic that keeps replies at-most-once
// per message.
package watcher

import (
	"strings"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// Matcher decides whether a message warrants an automated reply. A message
// qualifies when its text contains any configured trigger word
// (case-insensitive substring) or when it carries a media share.
type Matcher struct {
	words []string
}

// NewMatcher builds a matcher from the configured trigger words.
func NewMatcher(words []string) *Matcher {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Matcher{words: lowered}
}

// Match returns the trigger words found in the message text and whether the
// message qualifies for a reply at all. A media share qualifies even when no
// word matches.
func (m *Matcher) Match(msg domain.Message) ([]string, bool) {
	text := strings.ToLower(msg.Text)
	var matched []string
	for _, w := range m.words {
		if strings.Contains(text, w) {
			matched = append(matched, w)
		}
	}
	return matched, len(matched) > 0 || msg.HasMediaShare()
}

// Words returns the configured trigger words, lowercased.
func (m *Matcher) Words() []string {
	return m.words
}
