package repository

import (
	"context"
	"errors"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// TagRepositoryImpl implements TagRepository interface
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag](db),
	}
}

// ByName retrieves a tag by name, ignoring case and surrounding whitespace
func (r *TagRepositoryImpl) ByName(ctx context.Context, name string) (*models.Tag, error) {
	var row models.Tag
	err := r.getDB(ctx).Where("name_key = ?", models.TagKey(name)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByNames retrieves tags for a list of names, ignoring case
func (r *TagRepositoryImpl) ListByNames(ctx context.Context, names []string) ([]*models.Tag, error) {
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, models.TagKey(n))
	}
	var rows []*models.Tag
	if err := r.getDB(ctx).Where("name_key IN ?", keys).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll retrieves every tag ordered by name
func (r *TagRepositoryImpl) ListAll(ctx context.Context) ([]*models.Tag, error) {
	var rows []*models.Tag
	if err := r.getDB(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
