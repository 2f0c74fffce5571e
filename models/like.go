package models

import "time"

// Like records that one user liked another
type Like struct {
	SourceUserID uint      `gorm:"primaryKey" json:"source_user_id"`
	TargetUserID uint      `gorm:"primaryKey;index:idx_likes_target_user_id" json:"target_user_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Like) TableName() string { return "likes" }
