package models

import (
	"time"

	"github.com/amirphl/photo-moderation/utils"
	"gorm.io/gorm"
)

// Photo is an uploaded picture owned by exactly one user.
// Table: photos
// A partial unique index (uk_photos_user_main) allows at most one main photo per user.
// Unapproved photos are hidden from default queries; see ApprovedPhotos.
type Photo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	URL        string    `gorm:"column:url;type:text;not null" json:"url"`
	PublicID   *string   `gorm:"size:512" json:"public_id,omitempty"`
	IsMain     bool      `gorm:"not null" json:"is_main"`
	IsApproved bool      `gorm:"not null;index:idx_photos_is_approved" json:"is_approved"`
	UserID     uint      `gorm:"not null;index:idx_photos_user_id" json:"user_id"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User      *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	PhotoTags []PhotoTag `gorm:"foreignKey:PhotoID;references:ID;constraint:OnDelete:CASCADE" json:"photo_tags,omitempty"`
}

func (Photo) TableName() string { return "photos" }

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// HasRemoteAsset reports whether the photo is backed by an object in the media store.
// Seed and legacy rows carry no asset id.
func (p *Photo) HasRemoteAsset() bool {
	return p.PublicID != nil && *p.PublicID != ""
}

// ApprovedPhotos is the default photo scope. Moderation code bypasses it explicitly.
func ApprovedPhotos(db *gorm.DB) *gorm.DB {
	return db.Where("photos.is_approved = ?", true)
}
