package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/photo-moderation/models"
	"github.com/jmoiron/sqlx"
)

const photoApprovalStatsQuery = `
SELECT u.username,
       COUNT(p.id) FILTER (WHERE p.is_approved)     AS approved_photos,
       COUNT(p.id) FILTER (WHERE NOT p.is_approved) AS pending_photos
FROM users u
JOIN photos p ON p.user_id = u.id
WHERE u.id <> $1
GROUP BY u.username
ORDER BY pending_photos DESC, u.username ASC`

const usersWithoutMainPhotoQuery = `
SELECT u.username
FROM users u
WHERE u.id <> $1
  AND NOT EXISTS (SELECT 1 FROM photos p WHERE p.user_id = u.id AND p.is_main)
ORDER BY u.username ASC`

// ReportRepositoryImpl runs reporting SQL through sqlx
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a report repository on an existing sqlx handle
func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// PhotoApprovalStats counts approved and pending photos per user
func (r *ReportRepositoryImpl) PhotoApprovalStats(ctx context.Context, excludeUserID uint) ([]models.PhotoApprovalStat, error) {
	stats := []models.PhotoApprovalStat{}
	if err := r.db.SelectContext(ctx, &stats, photoApprovalStatsQuery, excludeUserID); err != nil {
		return nil, fmt.Errorf("failed to load photo approval stats: %w", err)
	}
	return stats, nil
}

// UsernamesWithoutMainPhoto lists users that have no main photo
func (r *ReportRepositoryImpl) UsernamesWithoutMainPhoto(ctx context.Context, excludeUserID uint) ([]string, error) {
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, usersWithoutMainPhotoQuery, excludeUserID); err != nil {
		return nil, fmt.Errorf("failed to load users without main photo: %w", err)
	}
	return names, nil
}
