package repository

import (
	"context"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// MessageRepositoryImpl implements MessageRepository interface
type MessageRepositoryImpl struct {
	*BaseRepository[models.Message]
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Message](db),
	}
}

// ListThread lists the conversation between two users as seen by currentUsername,
// oldest first, skipping messages the viewer deleted
func (r *MessageRepositoryImpl) ListThread(ctx context.Context, currentUsername, otherUsername string) ([]*models.Message, error) {
	var rows []*models.Message
	err := r.getDB(ctx).
		Where("(recipient_username = ? AND sender_username = ? AND recipient_deleted = ?) OR (sender_username = ? AND recipient_username = ? AND sender_deleted = ?)",
			currentUsername, otherUsername, false,
			currentUsername, otherUsername, false).
		Order("sent_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
