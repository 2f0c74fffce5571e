package models

import "time"

// Message is a direct message between two users. Each party deletes it
// independently; the row is removed once both sides have deleted it.
type Message struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	SenderID          uint       `gorm:"not null;index:idx_messages_sender_id" json:"sender_id"`
	SenderUsername    string     `gorm:"size:256;not null" json:"sender_username"`
	RecipientID       uint       `gorm:"not null;index:idx_messages_recipient_id" json:"recipient_id"`
	RecipientUsername string     `gorm:"size:256;not null" json:"recipient_username"`
	Content           string     `gorm:"type:text;not null" json:"content"`
	DateRead          *time.Time `json:"date_read,omitempty"`
	SentAt            time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"sent_at"`
	SenderDeleted     bool       `gorm:"not null" json:"-"`
	RecipientDeleted  bool       `gorm:"not null" json:"-"`
}

func (Message) TableName() string { return "messages" }

// IsParty reports whether username is the sender or recipient
func (m *Message) IsParty(username string) bool {
	return m.SenderUsername == username || m.RecipientUsername == username
}
