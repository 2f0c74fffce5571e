package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// PhotoModerationFlow handles the moderator side of the photo lifecycle
type PhotoModerationFlow interface {
	ApprovePhoto(ctx context.Context, photoID uint) error
	RejectPhoto(ctx context.Context, photoID uint) error
	GetPhotosForApproval(ctx context.Context) ([]dto.PhotoForApprovalDTO, error)
	GetPhotoApprovalStats(ctx context.Context, currentUserID uint) ([]dto.PhotoApprovalStatDTO, error)
	GetUsersWithoutMainPhoto(ctx context.Context, currentUserID uint) ([]string, error)
	ExportPhotoApprovalStats(ctx context.Context, currentUserID uint) (filename string, data []byte, err error)
	GetPhotoHistory(ctx context.Context, photoID uint, page int) ([]dto.AuditEntryDTO, error)
	GetActorActivity(ctx context.Context, actorID uint, page int) ([]dto.AuditEntryDTO, error)
}

// AuditPageSize is the number of audit entries per history page
const AuditPageSize = 50

// PhotoModerationFlowImpl implements PhotoModerationFlow
type PhotoModerationFlowImpl struct {
	uow      repository.UnitOfWork
	reports  repository.ReportRepository
	media    services.MediaStore
	recorder recorder
	logger   *zap.Logger
}

func NewPhotoModerationFlow(
	uow repository.UnitOfWork,
	reports repository.ReportRepository,
	auditRepo repository.AuditLogRepository,
	media services.MediaStore,
	publisher services.EventPublisher,
	logger *zap.Logger,
) PhotoModerationFlow {
	rec := newRecorder(auditRepo, publisher, logger)
	return &PhotoModerationFlowImpl{
		uow:      uow,
		reports:  reports,
		media:    media,
		recorder: rec,
		logger:   rec.logger,
	}
}

// ApprovePhoto marks a pending photo approved. The first approved photo of a
// user without a main photo becomes main.
func (f *PhotoModerationFlowImpl) ApprovePhoto(ctx context.Context, photoID uint) (err error) {
	defer func() { observe("approve_photo", err) }()

	var approved *models.Photo
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		photo, user, err := f.lockedPhoto(ctx, photoID)
		if err != nil {
			return err
		}
		if photo == nil {
			return NotFound(MsgPhotoNotFound)
		}
		if user == nil {
			return NotFound(MsgUserNotFound)
		}

		changed := !photo.IsApproved
		photo.IsApproved = true

		main, err := f.uow.Photos().MainPhotoByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if main == nil && !photo.IsMain {
			photo.IsMain = true
			changed = true
		}

		if changed {
			work.Update(photo)
		}
		if err := completeOrFail(ctx, work, MsgApproveFailed); err != nil {
			return err
		}
		approved = photo
		return nil
	})
	if err != nil {
		return err
	}

	f.logger.Info("Photo approved",
		zap.Uint("photo_id", approved.ID),
		zap.Uint("user_id", approved.UserID),
		zap.Bool("is_main", approved.IsMain),
	)
	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionPhotoApproved,
		eventType:    services.EventPhotoApproved,
		description:  "Photo approved",
		photoID:      utils.ToPtr(approved.ID),
		targetUserID: utils.ToPtr(approved.UserID),
	})
	return nil
}

// lockedPhoto locks the photo owner's row and reads the photo again under that lock,
// so its main flag cannot change before the transaction ends. The user is nil when
// the owner row is gone.
func (f *PhotoModerationFlowImpl) lockedPhoto(ctx context.Context, photoID uint) (*models.Photo, *models.User, error) {
	photo, err := f.uow.Photos().ByIDIncludingPending(ctx, photoID)
	if err != nil || photo == nil {
		return nil, nil, err
	}

	user, err := f.uow.Users().ByIDForUpdate(ctx, photo.UserID)
	if err != nil || user == nil {
		return photo, nil, err
	}

	photo, err = f.uow.Photos().ByIDIncludingPending(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}
	return photo, user, nil
}

// RejectPhoto removes a non-main photo and its remote asset
func (f *PhotoModerationFlowImpl) RejectPhoto(ctx context.Context, photoID uint) (err error) {
	defer func() { observe("reject_photo", err) }()

	var rejected *models.Photo
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		photo, _, err := f.lockedPhoto(ctx, photoID)
		if err != nil {
			return err
		}
		if photo == nil || photo.IsMain {
			return InvalidOperation(MsgCannotReject)
		}

		if photo.HasRemoteAsset() {
			if err := f.media.DeleteAsset(ctx, *photo.PublicID); err != nil {
				return DependencyFailure(MsgMediaStoreUnavailable, err)
			}
		}

		work.Remove(photo)
		if err := completeOrFail(ctx, work, MsgRejectFailed); err != nil {
			return err
		}
		rejected = photo
		return nil
	})
	if err != nil {
		return err
	}

	f.logger.Info("Photo rejected", zap.Uint("photo_id", rejected.ID), zap.Uint("user_id", rejected.UserID))
	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionPhotoRejected,
		eventType:    services.EventPhotoRejected,
		description:  "Photo rejected",
		photoID:      utils.ToPtr(rejected.ID),
		targetUserID: utils.ToPtr(rejected.UserID),
	})
	return nil
}

// GetPhotosForApproval lists pending photos, oldest first
func (f *PhotoModerationFlowImpl) GetPhotosForApproval(ctx context.Context) ([]dto.PhotoForApprovalDTO, error) {
	photos, err := f.uow.Photos().ListPending(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PhotoForApprovalDTO, 0, len(photos))
	for _, p := range photos {
		item := dto.PhotoForApprovalDTO{
			ID:         p.ID,
			URL:        p.URL,
			IsApproved: p.IsApproved,
			CreatedAt:  formatTime(p.CreatedAt),
		}
		if p.User != nil {
			item.Username = p.User.Username
		}
		out = append(out, item)
	}
	return out, nil
}

// GetPhotoApprovalStats returns per-user approved and pending counts, excluding the caller
func (f *PhotoModerationFlowImpl) GetPhotoApprovalStats(ctx context.Context, currentUserID uint) ([]dto.PhotoApprovalStatDTO, error) {
	stats, err := f.reports.PhotoApprovalStats(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, NotFound(MsgNoStats)
	}

	out := make([]dto.PhotoApprovalStatDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, dto.PhotoApprovalStatDTO{
			Username:       s.Username,
			ApprovedPhotos: s.ApprovedPhotos,
			PendingPhotos:  s.PendingPhotos,
		})
	}
	return out, nil
}

// GetUsersWithoutMainPhoto lists usernames that have no main photo, excluding the caller
func (f *PhotoModerationFlowImpl) GetUsersWithoutMainPhoto(ctx context.Context, currentUserID uint) ([]string, error) {
	names, err := f.reports.UsernamesWithoutMainPhoto(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, NotFound(MsgNoUsersWithoutMain)
	}
	return names, nil
}

// ExportPhotoApprovalStats renders the approval stats as an xlsx workbook
func (f *PhotoModerationFlowImpl) ExportPhotoApprovalStats(ctx context.Context, currentUserID uint) (string, []byte, error) {
	stats, err := f.GetPhotoApprovalStats(ctx, currentUserID)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Photo stats"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	header := []string{"username", "approved_photos", "pending_photos"}
	_ = xl.SetSheetRow(sheet, "A1", &header)
	for i, s := range stats {
		record := []string{s.Username, strconv.Itoa(s.ApprovedPhotos), strconv.Itoa(s.PendingPhotos)}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return "photo_approval_stats.xlsx", buf.Bytes(), nil
}

// GetPhotoHistory lists the audit trail of a photo, newest first. The trail
// outlives the photo, so a rejected or deleted photo still has one.
func (f *PhotoModerationFlowImpl) GetPhotoHistory(ctx context.Context, photoID uint, page int) ([]dto.AuditEntryDTO, error) {
	logs, err := f.recorder.auditRepo.ListByPhoto(ctx, photoID, AuditPageSize, auditOffset(page))
	if err != nil {
		return nil, err
	}
	return toAuditEntries(logs), nil
}

// GetActorActivity lists the audit entries a user produced, newest first
func (f *PhotoModerationFlowImpl) GetActorActivity(ctx context.Context, actorID uint, page int) ([]dto.AuditEntryDTO, error) {
	logs, err := f.recorder.auditRepo.ListByActor(ctx, actorID, AuditPageSize, auditOffset(page))
	if err != nil {
		return nil, err
	}
	return toAuditEntries(logs), nil
}

func auditOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * AuditPageSize
}

func toAuditEntries(logs []*models.AuditLog) []dto.AuditEntryDTO {
	out := make([]dto.AuditEntryDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, ToAuditEntryDTO(l))
	}
	return out
}
