// Package domain holds the core types shared across the service.
package domain

import "time"

// MediaShare is a shared post attached to a direct message.
type MediaShare struct {
	Code string `json:"code"`
}

// Message is a single direct message inside a thread. IDs are unique within
// the thread but carry no ordering guarantee.
type Message struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Text       string      `json:"text"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
	MediaShare *MediaShare `json:"media_share,omitempty"`
}

// HasMediaShare reports whether the message carries a shared post.
func (m Message) HasMediaShare() bool {
	return m.MediaShare != nil
}

// Thread is a direct-message conversation. The remote service does not
// guarantee message order, so consumers must scan defensively.
type Thread struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}
