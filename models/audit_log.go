package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ActorID       *uint          `gorm:"index:idx_audit_actor_id" json:"actor_id,omitempty"`
	ActorUsername *string        `gorm:"size:256" json:"actor_username,omitempty"`
	Action        string         `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	PhotoID       *uint          `gorm:"index:idx_audit_photo_id" json:"photo_id,omitempty"`
	TargetUserID  *uint          `json:"target_user_id,omitempty"`
	Description   *string        `gorm:"type:text" json:"description,omitempty"`
	IPAddress     *string        `gorm:"size:64" json:"ip_address,omitempty"`
	RequestID     *string        `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success       *bool          `gorm:"default:true" json:"success"`
	ErrorMessage  *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionPhotoApproved    = "photo_approved"
	AuditActionPhotoRejected    = "photo_rejected"
	AuditActionPhotoDeleted     = "photo_deleted"
	AuditActionPhotoUploaded    = "photo_uploaded"
	AuditActionMainPhotoChanged = "main_photo_changed"
	AuditActionTagsAssigned     = "tags_assigned"
	AuditActionTagRemoved       = "tag_removed"
	AuditActionTagCreated       = "tag_created"
	AuditActionTagDeleted       = "tag_deleted"
	AuditActionRolesEdited      = "roles_edited"
	AuditActionLikeAdded        = "like_added"
	AuditActionLikeRemoved      = "like_removed"
	AuditActionMessageSent      = "message_sent"
	AuditActionMessageDeleted   = "message_deleted"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ActorID *uint
	PhotoID *uint
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsModerationEvent reports whether the entry was produced by a moderator action
func (a *AuditLog) IsModerationEvent() bool {
	switch a.Action {
	case AuditActionPhotoApproved, AuditActionPhotoRejected, AuditActionRolesEdited,
		AuditActionTagCreated, AuditActionTagDeleted:
		return true
	}
	return false
}
