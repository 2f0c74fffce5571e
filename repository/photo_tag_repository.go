package repository

import (
	"context"
	"errors"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// PhotoTagRepositoryImpl implements PhotoTagRepository interface
type PhotoTagRepositoryImpl struct {
	*BaseRepository[models.PhotoTag]
}

// NewPhotoTagRepository creates a new photo tag repository
func NewPhotoTagRepository(db *gorm.DB) PhotoTagRepository {
	return &PhotoTagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PhotoTag](db),
	}
}

// ByKey retrieves an assignment by its composite key
func (r *PhotoTagRepositoryImpl) ByKey(ctx context.Context, photoID, tagID uint) (*models.PhotoTag, error) {
	var row models.PhotoTag
	err := r.getDB(ctx).Where("photo_id = ? AND tag_id = ?", photoID, tagID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByPhoto lists a photo's assignments with tags loaded
func (r *PhotoTagRepositoryImpl) ListByPhoto(ctx context.Context, photoID uint) ([]*models.PhotoTag, error) {
	var rows []*models.PhotoTag
	err := r.getDB(ctx).
		Preload("Tag").
		Where("photo_id = ?", photoID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
