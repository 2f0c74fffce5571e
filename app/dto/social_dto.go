package dto

// CreateMessageRequest is the body of POST /messages
type CreateMessageRequest struct {
	RecipientUsername string `json:"recipient_username" validate:"required,max=256"`
	Content           string `json:"content" validate:"required,max=4000"`
}

// MessageDTO represents a direct message
type MessageDTO struct {
	ID                uint    `json:"id"`
	SenderID          uint    `json:"sender_id"`
	SenderUsername    string  `json:"sender_username"`
	RecipientID       uint    `json:"recipient_id"`
	RecipientUsername string  `json:"recipient_username"`
	Content           string  `json:"content"`
	DateRead          *string `json:"date_read,omitempty"`
	SentAt            string  `json:"sent_at"`
}

// LikeResultDTO reports the state after a like toggle
type LikeResultDTO struct {
	TargetUserID uint `json:"target_user_id"`
	Liked        bool `json:"liked"`
}
