package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tag is a label attachable to photos.
// Table: tags
// Names are unique case-insensitively through name_key (uk_tags_name_key), which
// is folded in Go so lookups and the index agree regardless of database collation.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	NameKey   string    `gorm:"column:name_key;size:100;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	PhotoTags []PhotoTag `gorm:"foreignKey:TagID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Tag) TableName() string { return "tags" }

// TagKey folds a tag name for comparison and storage in name_key
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key is the case-folded form used for comparisons
func (t *Tag) Key() string {
	return TagKey(t.Name)
}

// BeforeCreate stores the folded name
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	t.NameKey = t.Key()
	return nil
}
