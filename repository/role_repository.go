package repository

import (
	"context"

	"github.com/amirphl/photo-moderation/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepositoryImpl implements RoleRepository interface
type RoleRepositoryImpl struct {
	*BaseRepository[models.Role]
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &RoleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Role](db),
	}
}

// ByNames retrieves roles by exact name
func (r *RoleRepositoryImpl) ByNames(ctx context.Context, names []string) ([]*models.Role, error) {
	if len(names) == 0 {
		return []*models.Role{}, nil
	}
	var rows []*models.Role
	if err := r.getDB(ctx).Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUser lists the roles a user belongs to, ordered by name
func (r *RoleRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Role, error) {
	var rows []*models.Role
	err := r.getDB(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AddUserRoles inserts memberships; existing memberships are left untouched
func (r *RoleRepositoryImpl) AddUserRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	if len(roleIDs) == 0 {
		return nil
	}
	rows := make([]models.UserRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		rows = append(rows, models.UserRole{UserID: userID, RoleID: id})
	}
	return r.getDB(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// RemoveUserRoles deletes memberships and reports how many were removed
func (r *RoleRepositoryImpl) RemoveUserRoles(ctx context.Context, userID uint, roleIDs []uint) (int64, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}
	res := r.getDB(ctx).
		Where("user_id = ? AND role_id IN ?", userID, roleIDs).
		Delete(&models.UserRole{})
	return res.RowsAffected, res.Error
}
