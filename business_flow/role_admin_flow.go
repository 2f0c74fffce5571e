package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"go.uber.org/zap"
)

// RoleAdminFlow lets administrators inspect and edit role memberships
type RoleAdminFlow interface {
	EditRoles(ctx context.Context, username, rolesCSV string) ([]string, error)
	GetUsersWithRoles(ctx context.Context) ([]dto.UserRolesDTO, error)
}

// RoleAdminFlowImpl implements RoleAdminFlow
type RoleAdminFlowImpl struct {
	uow      repository.UnitOfWork
	roles    services.RoleManager
	recorder recorder
	logger   *zap.Logger
}

func NewRoleAdminFlow(
	uow repository.UnitOfWork,
	roles services.RoleManager,
	auditRepo repository.AuditLogRepository,
	publisher services.EventPublisher,
	logger *zap.Logger,
) RoleAdminFlow {
	rec := newRecorder(auditRepo, publisher, logger)
	return &RoleAdminFlowImpl{uow: uow, roles: roles, recorder: rec, logger: rec.logger}
}

// EditRoles makes the user's roles equal to the comma separated list.
// Additions run before removals; both share one transaction.
func (f *RoleAdminFlowImpl) EditRoles(ctx context.Context, username, rolesCSV string) (_ []string, err error) {
	defer func() { observe("edit_roles", err) }()

	desired := utils.SplitCSV(rolesCSV)
	if len(desired) == 0 {
		return nil, Validation(MsgRolesRequired)
	}

	var (
		user   *models.User
		result []string
	)
	err = f.uow.Run(ctx, func(ctx context.Context, _ repository.Work) error {
		var err error
		user, err = f.uow.Users().ByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return NotFound(MsgUserNotFound)
		}

		current, err := f.roles.GetRoles(ctx, user)
		if err != nil {
			return err
		}

		if toAdd := difference(desired, current); len(toAdd) > 0 {
			res, err := f.roles.AddToRoles(ctx, user, toAdd)
			if err != nil {
				return err
			}
			if !res.Succeeded {
				return InvalidOperation(MsgAddRolesFailed + ": " + describe(res))
			}
		}

		if toRemove := difference(current, desired); len(toRemove) > 0 {
			res, err := f.roles.RemoveFromRoles(ctx, user, toRemove)
			if err != nil {
				return err
			}
			if !res.Succeeded {
				return InvalidOperation(MsgRemoveRolesFailed + ": " + describe(res))
			}
		}

		result, err = f.roles.GetRoles(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	f.logger.Info("Roles edited", zap.String("username", user.Username), zap.Strings("roles", result))
	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionRolesEdited,
		eventType:    services.EventUserRolesEdited,
		description:  "Roles edited",
		targetUserID: utils.ToPtr(user.ID),
		username:     user.Username,
		roles:        result,
	})
	return result, nil
}

// GetUsersWithRoles lists every user ordered by username with role names
func (f *RoleAdminFlowImpl) GetUsersWithRoles(ctx context.Context) ([]dto.UserRolesDTO, error) {
	users, err := f.uow.Users().ListWithRoles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.UserRolesDTO, 0, len(users))
	for _, u := range users {
		roles := make([]string, 0, len(u.UserRoles))
		for _, ur := range u.UserRoles {
			if ur.Role != nil {
				roles = append(roles, ur.Role.Name)
			}
		}
		out = append(out, dto.UserRolesDTO{ID: u.ID, Username: u.Username, Roles: roles})
	}
	return out, nil
}

// difference returns the distinct entries of a missing from b, in a's order
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := exclude[s]; ok {
			continue
		}
		exclude[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func describe(res services.IdentityResult) string {
	descs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		descs = append(descs, e.Description)
	}
	return strings.Join(descs, ", ")
}
