package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// AuditLogRepositoryImpl implements AuditLogRepository interface
type AuditLogRepositoryImpl struct {
	*BaseRepository[models.AuditLog]
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditLog](db),
	}
}

// ListByPhoto retrieves the moderation history of a photo, newest first
func (r *AuditLogRepositoryImpl) ListByPhoto(ctx context.Context, photoID uint, limit, offset int) ([]*models.AuditLog, error) {
	logs, err := r.list(ctx, models.AuditLogFilter{PhotoID: &photoID}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by photo: %w", err)
	}
	return logs, nil
}

// ListByActor retrieves audit logs produced by a user, newest first
func (r *AuditLogRepositoryImpl) ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error) {
	logs, err := r.list(ctx, models.AuditLogFilter{ActorID: &actorID}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by actor: %w", err)
	}
	return logs, nil
}

func (r *AuditLogRepositoryImpl) list(ctx context.Context, filter models.AuditLogFilter, limit, offset int) ([]*models.AuditLog, error) {
	query := r.getDB(ctx).Model(&models.AuditLog{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.PhotoID != nil {
		query = query.Where("photo_id = ?", *filter.PhotoID)
	}
	query = paginate(query, "created_at DESC, id DESC", limit, offset)

	var logs []*models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
