package repository

import (
	"context"
	"errors"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// LikeRepositoryImpl implements LikeRepository interface
type LikeRepositoryImpl struct {
	*BaseRepository[models.Like]
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &LikeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Like](db),
	}
}

func (r *LikeRepositoryImpl) ByKey(ctx context.Context, sourceUserID, targetUserID uint) (*models.Like, error) {
	var row models.Like
	err := r.getDB(ctx).
		Where("source_user_id = ? AND target_user_id = ?", sourceUserID, targetUserID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LikeRepositoryImpl) ListTargetIDs(ctx context.Context, sourceUserID uint) ([]uint, error) {
	ids := []uint{}
	err := r.getDB(ctx).
		Model(&models.Like{}).
		Where("source_user_id = ?", sourceUserID).
		Order("target_user_id ASC").
		Pluck("target_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
