// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/photo-moderation/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
}

// UserRepository defines operations for users.
// Lookups by username preload the user's approved photos.
type UserRepository interface {
	Repository[models.User]
	ByUsername(ctx context.Context, username string) (*models.User, error)
	// ByUsernameForUpdate locks the user row for the rest of the transaction
	ByUsernameForUpdate(ctx context.Context, username string) (*models.User, error)
	ByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	ListWithRoles(ctx context.Context) ([]*models.User, error)
}

// PhotoRepository defines operations for photos.
// Methods apply the approval filter unless their name says otherwise.
type PhotoRepository interface {
	Repository[models.Photo]
	ByIDIncludingPending(ctx context.Context, id uint) (*models.Photo, error)
	ByIDWithTagsIncludingPending(ctx context.Context, id uint) (*models.Photo, error)
	MainPhotoByUser(ctx context.Context, userID uint) (*models.Photo, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.Photo, error)
	ListByUserWithTags(ctx context.Context, userID uint) ([]*models.Photo, error)
}

// TagRepository defines operations for tags. Name lookups are case-insensitive.
type TagRepository interface {
	Repository[models.Tag]
	ByName(ctx context.Context, name string) (*models.Tag, error)
	ListByNames(ctx context.Context, names []string) ([]*models.Tag, error)
	ListAll(ctx context.Context) ([]*models.Tag, error)
}

// PhotoTagRepository defines operations for photo/tag assignments
type PhotoTagRepository interface {
	ByKey(ctx context.Context, photoID, tagID uint) (*models.PhotoTag, error)
	ListByPhoto(ctx context.Context, photoID uint) ([]*models.PhotoTag, error)
}

// RoleRepository defines operations for roles and memberships
type RoleRepository interface {
	ByNames(ctx context.Context, names []string) ([]*models.Role, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Role, error)
	AddUserRoles(ctx context.Context, userID uint, roleIDs []uint) error
	RemoveUserRoles(ctx context.Context, userID uint, roleIDs []uint) (int64, error)
}

// LikeRepository defines operations for likes
type LikeRepository interface {
	ByKey(ctx context.Context, sourceUserID, targetUserID uint) (*models.Like, error)
	ListTargetIDs(ctx context.Context, sourceUserID uint) ([]uint, error)
}

// MessageRepository defines operations for messages
type MessageRepository interface {
	ByID(ctx context.Context, id uint) (*models.Message, error)
	ListThread(ctx context.Context, currentUsername, otherUsername string) ([]*models.Message, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog]
	ListByPhoto(ctx context.Context, photoID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByActor(ctx context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error)
}

// ReportRepository runs read-only statistics queries
type ReportRepository interface {
	PhotoApprovalStats(ctx context.Context, excludeUserID uint) ([]models.PhotoApprovalStat, error)
	UsernamesWithoutMainPhoto(ctx context.Context, excludeUserID uint) ([]string, error)
}
