package businessflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminAccount creates the named account when it is missing and makes
// sure it holds the Admin role. An existing password is never replaced.
func EnsureAdminAccount(
	ctx context.Context,
	uow repository.UnitOfWork,
	roles services.RoleManager,
	username, password string,
	bcryptCost int,
	logger *zap.Logger,
) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return Validation(MsgUsernameRequired)
	}

	return uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		user, err := uow.Users().ByUsernameForUpdate(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to load admin account: %w", err)
		}

		if user == nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash admin password: %w", err)
			}
			user = &models.User{
				Username:     username,
				KnownAs:      username,
				PasswordHash: string(hash),
			}
			work.Add(user)
			if err := completeOrFail(ctx, work, "Failed to create admin account"); err != nil {
				return err
			}
			logger.Info("Created bootstrap admin account", zap.String("username", username))
		}

		current, err := roles.GetRoles(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to load admin roles: %w", err)
		}
		if slices.Contains(current, utils.RoleAdmin) {
			return nil
		}

		res, err := roles.AddToRoles(ctx, user, []string{utils.RoleAdmin})
		if err != nil {
			return fmt.Errorf("failed to grant admin role: %w", err)
		}
		if !res.Succeeded {
			return PersistenceFailure(MsgAddRolesFailed+": "+describe(res), nil)
		}
		logger.Info("Granted admin role", zap.String("username", username))
		return nil
	})
}
