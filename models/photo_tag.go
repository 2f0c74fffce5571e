package models

import (
	"time"

	"github.com/amirphl/photo-moderation/utils"
	"gorm.io/gorm"
)

// PhotoTag assigns a tag to a photo and records who assigned it
type PhotoTag struct {
	PhotoID   uint      `gorm:"primaryKey" json:"photo_id"`
	TagID     uint      `gorm:"primaryKey" json:"tag_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"size:256" json:"created_by,omitempty"`

	Photo *Photo `gorm:"foreignKey:PhotoID;references:ID" json:"-"`
	Tag   *Tag   `gorm:"foreignKey:TagID;references:ID" json:"tag,omitempty"`
}

func (PhotoTag) TableName() string { return "photo_tags" }

// BeforeCreate resolves the tag id from a tag created earlier in the same unit of work.
func (pt *PhotoTag) BeforeCreate(tx *gorm.DB) error {
	if pt.TagID == 0 && pt.Tag != nil {
		pt.TagID = pt.Tag.ID
	}
	if pt.PhotoID == 0 && pt.Photo != nil {
		pt.PhotoID = pt.Photo.ID
	}
	if pt.CreatedAt.IsZero() {
		pt.CreatedAt = utils.UTCNow()
	}
	return nil
}
