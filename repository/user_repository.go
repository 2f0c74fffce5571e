package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User](db),
	}
}

// ByUsername retrieves a user with approved photos loaded
func (r *UserRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.byUsername(ctx, r.getDB(ctx), username)
}

// ByUsernameForUpdate retrieves and locks a user with approved photos loaded
func (r *UserRepositoryImpl) ByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	return r.byUsername(ctx, forUpdate(r.getDB(ctx)), username)
}

func (r *UserRepositoryImpl) byUsername(ctx context.Context, db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadApprovedPhotos(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ByIDForUpdate retrieves and locks a user by id
func (r *UserRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := forUpdate(r.getDB(ctx)).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) loadApprovedPhotos(ctx context.Context, user *models.User) error {
	return r.getDB(ctx).
		Scopes(models.ApprovedPhotos).
		Where("user_id = ?", user.ID).
		Order("id ASC").
		Find(&user.Photos).Error
}

// ListWithRoles lists all users ordered by username with their roles loaded
func (r *UserRepositoryImpl) ListWithRoles(ctx context.Context) ([]*models.User, error) {
	var rows []*models.User
	err := r.getDB(ctx).
		Preload("UserRoles.Role").
		Order("username ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
