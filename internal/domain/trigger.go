package domain

// TriggerRecord is the append-only audit record written when a message fires
// a trigger. Records are keyed by message ID and never mutated after the
// first write; an external reporting surface reads them, the bot does not.
type TriggerRecord struct {
	MessageID      string   `json:"message_id"`
	ThreadID       string   `json:"thread_id"`
	UserID         string   `json:"user_id"`
	Username       string   `json:"username"`
	Text           string   `json:"text"`
	Timestamp      string   `json:"timestamp,omitempty"`
	HasMediaShare  bool     `json:"has_media_share"`
	MediaShareCode string   `json:"media_share_url,omitempty"`
	TriggeredWords []string `json:"triggered_words"`
	ReplySent      bool     `json:"reply_sent"`
	CreatedAt      string   `json:"created_at"`
}
