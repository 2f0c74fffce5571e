package dto

// UserRolesDTO is a user with role names
type UserRolesDTO struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}
