package models

// Role is a named permission group (Member, Admin, Moderator)
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:256;not null;uniqueIndex:uk_roles_name" json:"name"`
}

func (Role) TableName() string { return "roles" }

// UserRole links a user to a role
type UserRole struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	RoleID uint `gorm:"primaryKey" json:"role_id"`

	User *User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Role *Role `gorm:"foreignKey:RoleID;references:ID" json:"role,omitempty"`
}

func (UserRole) TableName() string { return "user_roles" }
