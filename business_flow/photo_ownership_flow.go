package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"path/filepath"
	"strings"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/config"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// PhotoOwnershipFlow handles the owner side of the photo lifecycle
type PhotoOwnershipFlow interface {
	SetMainPhoto(ctx context.Context, username string, photoID uint) error
	DeletePhoto(ctx context.Context, username string, photoID uint) error
	AddPhoto(ctx context.Context, username string, upload dto.AddPhotoUpload) (*dto.PhotoDTO, error)
	GetPhotosWithTags(ctx context.Context, username string) ([]dto.PhotoDTO, error)
}

// PhotoOwnershipFlowImpl implements PhotoOwnershipFlow
type PhotoOwnershipFlowImpl struct {
	uow      repository.UnitOfWork
	media    services.MediaStore
	mediaCfg config.MediaConfig
	recorder recorder
	logger   *zap.Logger
}

func NewPhotoOwnershipFlow(
	uow repository.UnitOfWork,
	auditRepo repository.AuditLogRepository,
	media services.MediaStore,
	publisher services.EventPublisher,
	mediaCfg config.MediaConfig,
	logger *zap.Logger,
) PhotoOwnershipFlow {
	rec := newRecorder(auditRepo, publisher, logger)
	return &PhotoOwnershipFlowImpl{
		uow:      uow,
		media:    media,
		mediaCfg: mediaCfg,
		recorder: rec,
		logger:   rec.logger,
	}
}

// SetMainPhoto makes one of the user's approved photos main, demoting the current one
func (f *PhotoOwnershipFlowImpl) SetMainPhoto(ctx context.Context, username string, photoID uint) (err error) {
	defer func() { observe("set_main_photo", err) }()

	var owner *models.User
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		user, err := f.uow.Users().ByUsernameForUpdate(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return NotFound(MsgUserNotFound)
		}

		photo := user.PhotoByID(photoID)
		if photo == nil || photo.IsMain {
			return InvalidOperation(MsgCannotSetMain)
		}

		// demote before promote so the one-main index never sees two rows
		if current := user.MainPhoto(); current != nil {
			current.IsMain = false
			work.Update(current)
		}
		photo.IsMain = true
		work.Update(photo)

		if err := completeOrFail(ctx, work, MsgSetMainFailed); err != nil {
			return err
		}
		owner = user
		return nil
	})
	if err != nil {
		return err
	}

	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionMainPhotoChanged,
		eventType:    services.EventPhotoMainChanged,
		description:  "Main photo changed",
		photoID:      utils.ToPtr(photoID),
		targetUserID: utils.ToPtr(owner.ID),
		username:     owner.Username,
	})
	return nil
}

// DeletePhoto removes one of the user's non-main photos and its remote asset
func (f *PhotoOwnershipFlowImpl) DeletePhoto(ctx context.Context, username string, photoID uint) (err error) {
	defer func() { observe("delete_photo", err) }()

	var owner *models.User
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		// the main flag is read under the owner's lock so a concurrent set-main cannot slip in
		user, err := f.uow.Users().ByUsernameForUpdate(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return NotFound(MsgUserNotFound)
		}

		photo, err := f.uow.Photos().ByIDIncludingPending(ctx, photoID)
		if err != nil {
			return err
		}
		if photo == nil || photo.IsMain {
			return InvalidOperation(MsgCannotDelete)
		}
		if photo.UserID != user.ID {
			return Unauthorized(MsgNotPhotoOwner)
		}

		if photo.HasRemoteAsset() {
			if err := f.media.DeleteAsset(ctx, *photo.PublicID); err != nil {
				return DependencyFailure(MsgMediaStoreUnavailable, err)
			}
		}

		work.Remove(photo)
		if err := completeOrFail(ctx, work, MsgDeleteFailed); err != nil {
			return err
		}
		owner = user
		return nil
	})
	if err != nil {
		return err
	}

	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionPhotoDeleted,
		eventType:    services.EventPhotoDeleted,
		description:  "Photo deleted by owner",
		photoID:      utils.ToPtr(photoID),
		targetUserID: utils.ToPtr(owner.ID),
		username:     owner.Username,
	})
	return nil
}

// AddPhoto uploads an image and stores it as a pending, non-main photo
func (f *PhotoOwnershipFlowImpl) AddPhoto(ctx context.Context, username string, upload dto.AddPhotoUpload) (_ *dto.PhotoDTO, err error) {
	defer func() { observe("add_photo", err) }()

	user, err := f.uow.Users().ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NotFound(MsgUserNotFound)
	}

	asset, err := f.prepareImage(upload)
	if err != nil {
		return nil, err
	}

	result, err := f.media.UploadAsset(ctx, *asset)
	if err != nil {
		return nil, DependencyFailure(MsgMediaStoreUnavailable, err)
	}

	photo := &models.Photo{
		URL:      result.URL,
		PublicID: utils.ToPtr(result.AssetID),
		UserID:   user.ID,
	}
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		work.Add(photo)
		return completeOrFail(ctx, work, MsgUploadFailed)
	})
	if err != nil {
		if delErr := f.media.DeleteAsset(ctx, result.AssetID); delErr != nil {
			f.logger.Warn("Failed to remove orphaned asset", zap.String("asset_id", result.AssetID), zap.Error(delErr))
		}
		return nil, err
	}

	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionPhotoUploaded,
		eventType:    services.EventPhotoUploaded,
		description:  "Photo uploaded",
		photoID:      utils.ToPtr(photo.ID),
		targetUserID: utils.ToPtr(user.ID),
		username:     user.Username,
	})

	out := ToPhotoDTO(photo)
	return &out, nil
}

// GetPhotosWithTags lists the user's approved photos with their tag names
func (f *PhotoOwnershipFlowImpl) GetPhotosWithTags(ctx context.Context, username string) ([]dto.PhotoDTO, error) {
	user, err := f.uow.Users().ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NotFound(MsgUserNotFound)
	}

	photos, err := f.uow.Photos().ListByUserWithTags(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PhotoDTO, 0, len(photos))
	for _, p := range photos {
		out = append(out, ToPhotoDTO(p))
	}
	return out, nil
}

// prepareImage validates the upload and scales it down to the configured width
func (f *PhotoOwnershipFlowImpl) prepareImage(upload dto.AddPhotoUpload) (*services.AssetUpload, error) {
	if len(upload.Data) == 0 {
		return nil, Validation("File is required.")
	}
	if int64(len(upload.Data)) > f.mediaCfg.MaxUploadBytes {
		return nil, Validation(fmt.Sprintf("File exceeds the %d byte limit.", f.mediaCfg.MaxUploadBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, Validation("File is not a supported image.")
	}
	if f.mediaCfg.MaxSourcePixel > 0 && (cfg.Width > f.mediaCfg.MaxSourcePixel || cfg.Height > f.mediaCfg.MaxSourcePixel) {
		return nil, Validation("Image dimensions are too large.")
	}

	passthrough := format == "jpeg" || format == "png" || format == "gif"
	if passthrough && cfg.Width <= f.mediaCfg.MaxWidth {
		return &services.AssetUpload{
			FileName:    upload.FileName,
			ContentType: "image/" + format,
			Body:        bytes.NewReader(upload.Data),
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, Validation("File is not a supported image.")
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, scaleToWidth(img, f.mediaCfg.MaxWidth), &jpeg.Options{Quality: f.mediaCfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	name := strings.TrimSuffix(upload.FileName, filepath.Ext(upload.FileName))
	return &services.AssetUpload{
		FileName:    name + ".jpg",
		ContentType: "image/jpeg",
		Body:        buf,
	}, nil
}

func scaleToWidth(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}

	nw := maxWidth
	nh := max(1, int(float64(h)*float64(maxWidth)/float64(w)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
