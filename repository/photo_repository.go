package repository

import (
	"context"
	"errors"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// PhotoRepositoryImpl implements PhotoRepository interface
type PhotoRepositoryImpl struct {
	*BaseRepository[models.Photo]
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &PhotoRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Photo](db),
	}
}

// ByID retrieves an approved photo by its ID
func (r *PhotoRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Photo, error) {
	return r.first(r.getDB(ctx).Scopes(models.ApprovedPhotos).Where("id = ?", id))
}

// ByIDIncludingPending retrieves a photo by its ID regardless of approval
func (r *PhotoRepositoryImpl) ByIDIncludingPending(ctx context.Context, id uint) (*models.Photo, error) {
	return r.first(r.getDB(ctx).Where("id = ?", id))
}

// ByIDWithTagsIncludingPending retrieves a photo with its tag assignments regardless of approval
func (r *PhotoRepositoryImpl) ByIDWithTagsIncludingPending(ctx context.Context, id uint) (*models.Photo, error) {
	return r.first(r.getDB(ctx).Preload("PhotoTags.Tag").Where("id = ?", id))
}

// MainPhotoByUser retrieves the user's main photo
func (r *PhotoRepositoryImpl) MainPhotoByUser(ctx context.Context, userID uint) (*models.Photo, error) {
	return r.first(r.getDB(ctx).Where("user_id = ? AND is_main = ?", userID, true))
}

func (r *PhotoRepositoryImpl) first(query *gorm.DB) (*models.Photo, error) {
	var photo models.Photo
	if err := query.First(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &photo, nil
}

// ListPending lists photos awaiting moderation, oldest first, with owners loaded
func (r *PhotoRepositoryImpl) ListPending(ctx context.Context, limit, offset int) ([]*models.Photo, error) {
	query := r.getDB(ctx).Preload("User").Where("is_approved = ?", false)
	query = paginate(query, "created_at ASC, id ASC", limit, offset)

	var rows []*models.Photo
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserWithTags lists a user's approved photos with tags loaded
func (r *PhotoRepositoryImpl) ListByUserWithTags(ctx context.Context, userID uint) ([]*models.Photo, error) {
	var rows []*models.Photo
	err := r.getDB(ctx).
		Scopes(models.ApprovedPhotos).
		Preload("PhotoTags.Tag").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
