// Package models contains domain entities for users, photos, tags and their moderation state
package models

import (
	"strings"
	"time"

	"github.com/amirphl/photo-moderation/utils"
	"gorm.io/gorm"
)

// User is a member of the platform. Usernames are stored lower-case.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:256;not null;uniqueIndex:uk_users_username" json:"username"`
	KnownAs      string    `gorm:"size:256;not null" json:"known_as"`
	Gender       string    `gorm:"size:32;not null" json:"gender"`
	City         string    `gorm:"size:128;not null" json:"city"`
	Country      string    `gorm:"size:128;not null" json:"country"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastActive   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_active"`

	Photos    []Photo    `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	UserRoles []UserRole `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeCreate normalizes the username and stamps timestamps.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	if u.LastActive.IsZero() {
		u.LastActive = u.CreatedAt
	}
	return nil
}

// MainPhoto returns the user's main photo among the loaded photos, if any
func (u *User) MainPhoto() *Photo {
	for i := range u.Photos {
		if u.Photos[i].IsMain {
			return &u.Photos[i]
		}
	}
	return nil
}

// PhotoByID returns the loaded photo with the given id, if any
func (u *User) PhotoByID(id uint) *Photo {
	for i := range u.Photos {
		if u.Photos[i].ID == id {
			return &u.Photos[i]
		}
	}
	return nil
}
