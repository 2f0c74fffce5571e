package services

import (
	"context"
	"fmt"

	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
)

// IdentityError describes one rejected role change
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// IdentityResult is the outcome of a role change. Rejections are reported
// through Errors; the returned error is reserved for storage failures.
type IdentityResult struct {
	Succeeded bool
	Errors    []IdentityError
}

func identityFailed(errs []IdentityError) IdentityResult {
	return IdentityResult{Succeeded: false, Errors: errs}
}

var identitySuccess = IdentityResult{Succeeded: true}

// RoleManager manages role memberships
type RoleManager interface {
	GetRoles(ctx context.Context, user *models.User) ([]string, error)
	AddToRoles(ctx context.Context, user *models.User, roles []string) (IdentityResult, error)
	RemoveFromRoles(ctx context.Context, user *models.User, roles []string) (IdentityResult, error)
}

// RoleManagerImpl implements RoleManager on the roles tables
type RoleManagerImpl struct {
	roleRepo repository.RoleRepository
}

func NewRoleManager(roleRepo repository.RoleRepository) RoleManager {
	return &RoleManagerImpl{roleRepo: roleRepo}
}

// GetRoles lists the user's role names ordered by name
func (m *RoleManagerImpl) GetRoles(ctx context.Context, user *models.User) ([]string, error) {
	roles, err := m.roleRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// AddToRoles adds every role or none
func (m *RoleManagerImpl) AddToRoles(ctx context.Context, user *models.User, roles []string) (IdentityResult, error) {
	known, current, err := m.lookup(ctx, user, roles)
	if err != nil {
		return IdentityResult{}, err
	}

	var errs []IdentityError
	ids := make([]uint, 0, len(roles))
	for _, name := range roles {
		role, ok := known[name]
		if !ok {
			errs = append(errs, IdentityError{Code: "InvalidRoleName", Description: fmt.Sprintf("Role %s does not exist.", name)})
			continue
		}
		if current[role.ID] {
			errs = append(errs, IdentityError{Code: "UserAlreadyInRole", Description: fmt.Sprintf("User already in role '%s'.", name)})
			continue
		}
		ids = append(ids, role.ID)
	}
	if len(errs) > 0 {
		return identityFailed(errs), nil
	}

	if err := m.roleRepo.AddUserRoles(ctx, user.ID, ids); err != nil {
		return IdentityResult{}, err
	}
	return identitySuccess, nil
}

// RemoveFromRoles removes every role or none
func (m *RoleManagerImpl) RemoveFromRoles(ctx context.Context, user *models.User, roles []string) (IdentityResult, error) {
	known, current, err := m.lookup(ctx, user, roles)
	if err != nil {
		return IdentityResult{}, err
	}

	var errs []IdentityError
	ids := make([]uint, 0, len(roles))
	for _, name := range roles {
		role, ok := known[name]
		if !ok {
			errs = append(errs, IdentityError{Code: "InvalidRoleName", Description: fmt.Sprintf("Role %s does not exist.", name)})
			continue
		}
		if !current[role.ID] {
			errs = append(errs, IdentityError{Code: "UserNotInRole", Description: fmt.Sprintf("User is not in role '%s'.", name)})
			continue
		}
		ids = append(ids, role.ID)
	}
	if len(errs) > 0 {
		return identityFailed(errs), nil
	}

	if _, err := m.roleRepo.RemoveUserRoles(ctx, user.ID, ids); err != nil {
		return IdentityResult{}, err
	}
	return identitySuccess, nil
}

func (m *RoleManagerImpl) lookup(ctx context.Context, user *models.User, names []string) (map[string]*models.Role, map[uint]bool, error) {
	roles, err := m.roleRepo.ByNames(ctx, names)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]*models.Role, len(roles))
	for _, r := range roles {
		known[r.Name] = r
	}

	memberships, err := m.roleRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	current := make(map[uint]bool, len(memberships))
	for _, r := range memberships {
		current[r.ID] = true
	}
	return known, current, nil
}
