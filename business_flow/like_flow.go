package businessflow

import (
	"context"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"go.uber.org/zap"
)

// LikeFlow toggles and lists likes between users
type LikeFlow interface {
	ToggleLike(ctx context.Context, sourceUserID, targetUserID uint) (*dto.LikeResultDTO, error)
	GetLikedUserIDs(ctx context.Context, userID uint) ([]uint, error)
}

type LikeFlowImpl struct {
	uow      repository.UnitOfWork
	recorder recorder
	logger   *zap.Logger
}

func NewLikeFlow(
	uow repository.UnitOfWork,
	auditRepo repository.AuditLogRepository,
	publisher services.EventPublisher,
	logger *zap.Logger,
) LikeFlow {
	rec := newRecorder(auditRepo, publisher, logger)
	return &LikeFlowImpl{uow: uow, recorder: rec, logger: rec.logger}
}

// ToggleLike likes the target, or removes an existing like
func (f *LikeFlowImpl) ToggleLike(ctx context.Context, sourceUserID, targetUserID uint) (_ *dto.LikeResultDTO, err error) {
	defer func() { observe("toggle_like", err) }()

	if sourceUserID == targetUserID {
		return nil, InvalidOperation(MsgCannotLikeSelf)
	}

	liked := false
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		target, err := f.uow.Users().ByID(ctx, targetUserID)
		if err != nil {
			return err
		}
		if target == nil {
			return NotFound(MsgUserNotFound)
		}

		like, err := f.uow.Likes().ByKey(ctx, sourceUserID, targetUserID)
		if err != nil {
			return err
		}
		if like != nil {
			work.Remove(like)
		} else {
			work.Add(&models.Like{SourceUserID: sourceUserID, TargetUserID: targetUserID})
			liked = true
		}
		return completeOrFail(ctx, work, MsgLikeFailed)
	})
	if err != nil {
		return nil, err
	}

	action, description := models.AuditActionLikeRemoved, "Like removed"
	if liked {
		action, description = models.AuditActionLikeAdded, "Like added"
	}
	f.recorder.committed(ctx, auditEntry{
		action:       action,
		description:  description,
		targetUserID: utils.ToPtr(targetUserID),
	})
	f.logger.Debug(description, zap.Uint("source_user_id", sourceUserID), zap.Uint("target_user_id", targetUserID))

	return &dto.LikeResultDTO{TargetUserID: targetUserID, Liked: liked}, nil
}

func (f *LikeFlowImpl) GetLikedUserIDs(ctx context.Context, userID uint) ([]uint, error) {
	return f.uow.Likes().ListTargetIDs(ctx, userID)
}
