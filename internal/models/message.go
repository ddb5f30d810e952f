package models

import "strings"

// Message represents a single message read from a group history.
type Message struct {
	ID       int    `json:"id"`
	Text     string `json:"message"`
	Date     int64  `json:"date"`               // unix seconds
	AuthorID int64  `json:"fromId,omitempty"` // 0 when the sender is not a user
}

// HasText reports whether the message carries non-blank text.
func (m Message) HasText() bool {
	return strings.TrimSpace(m.Text) != ""
}
