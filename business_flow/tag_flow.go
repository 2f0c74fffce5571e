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

// TagFlow manages tags and their assignment to photos
type TagFlow interface {
	AssignTagsToPhoto(ctx context.Context, username string, photoID uint, tagNames []string) error
	RemoveTagFromPhoto(ctx context.Context, photoID uint, tagName string) error
	GetTags(ctx context.Context) ([]dto.TagDTO, error)
	CreateTag(ctx context.Context, name string) (*dto.TagDTO, error)
	RemoveTagByName(ctx context.Context, name string) error
	GetPhotoTags(ctx context.Context, photoID uint) (*dto.PhotoTagsDTO, error)
}

// TagFlowImpl implements TagFlow
type TagFlowImpl struct {
	uow      repository.UnitOfWork
	registry *TagRegistry
	cache    services.TagCache
	recorder recorder
	logger   *zap.Logger
}

func NewTagFlow(
	uow repository.UnitOfWork,
	auditRepo repository.AuditLogRepository,
	cache services.TagCache,
	publisher services.EventPublisher,
	logger *zap.Logger,
) TagFlow {
	if cache == nil {
		cache = services.NoopTagCache{}
	}
	rec := newRecorder(auditRepo, publisher, logger)
	return &TagFlowImpl{
		uow:      uow,
		registry: NewTagRegistry(uow.Tags()),
		cache:    cache,
		recorder: rec,
		logger:   rec.logger,
	}
}

// AssignTagsToPhoto attaches the named tags to a photo, creating unknown tags.
// Tags already on the photo are skipped, so repeating a call changes nothing.
func (f *TagFlowImpl) AssignTagsToPhoto(ctx context.Context, username string, photoID uint, tagNames []string) (err error) {
	defer func() { observe("assign_tags", err) }()

	username = strings.TrimSpace(username)
	if username == "" {
		return Validation(MsgUsernameRequired)
	}
	names := NormalizeTagNames(tagNames)
	if len(names) == 0 {
		return Validation(MsgTagNamesRequired)
	}

	var added []string
	createdTags := false
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		photo, err := f.uow.Photos().ByIDWithTagsIncludingPending(ctx, photoID)
		if err != nil {
			return err
		}
		if photo == nil {
			return NotFound(MsgPhotoNotFound)
		}

		resolved, err := f.registry.ResolveOrCreateTags(ctx, names)
		if err != nil {
			return err
		}

		assigned := make(map[string]struct{}, len(photo.PhotoTags))
		for _, pt := range photo.PhotoTags {
			if pt.Tag != nil {
				assigned[pt.Tag.Key()] = struct{}{}
			}
		}

		now := utils.UTCNow()
		for _, r := range resolved {
			if _, ok := assigned[r.Tag.Key()]; ok {
				continue
			}
			if r.IsNew {
				work.Add(r.Tag)
				createdTags = true
			}
			work.Add(&models.PhotoTag{
				PhotoID:   photo.ID,
				TagID:     r.Tag.ID,
				Tag:       r.Tag,
				CreatedAt: now,
				CreatedBy: utils.ToPtr(username),
			})
			added = append(added, r.Tag.Name)
		}

		if !work.HasChanges() {
			return nil
		}
		return completeOrFail(ctx, work, MsgAssignTagsFailed)
	})
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return nil
	}

	if createdTags {
		f.invalidateCache(ctx)
	}
	f.recorder.committed(ctx, auditEntry{
		action:      models.AuditActionTagsAssigned,
		eventType:   services.EventPhotoTagsAssigned,
		description: "Tags assigned to photo",
		photoID:     utils.ToPtr(photoID),
		username:    username,
		tags:        added,
	})
	return nil
}

// RemoveTagFromPhoto detaches a tag from a photo. An unknown tag or a missing
// assignment is not an error.
func (f *TagFlowImpl) RemoveTagFromPhoto(ctx context.Context, photoID uint, tagName string) (err error) {
	defer func() { observe("remove_tag", err) }()

	removed := false
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		tag, err := f.uow.Tags().ByName(ctx, strings.TrimSpace(tagName))
		if err != nil || tag == nil {
			return err
		}

		pt, err := f.uow.PhotoTags().ByKey(ctx, photoID, tag.ID)
		if err != nil || pt == nil {
			return err
		}

		work.Remove(pt)
		ok, err := work.Complete(ctx)
		if err != nil {
			return PersistenceFailure("Problem removing tag.", err)
		}
		removed = ok
		return nil
	})
	if err != nil || !removed {
		return err
	}

	f.recorder.committed(ctx, auditEntry{
		action:      models.AuditActionTagRemoved,
		eventType:   services.EventPhotoTagRemoved,
		description: "Tag removed from photo",
		photoID:     utils.ToPtr(photoID),
		tags:        []string{strings.TrimSpace(tagName)},
	})
	return nil
}

// GetTags lists all tags by name, served from the cache when possible
func (f *TagFlowImpl) GetTags(ctx context.Context) ([]dto.TagDTO, error) {
	tags, hit, err := f.cache.GetTags(ctx)
	if err != nil {
		f.logger.Warn("Tag cache read failed", zap.Error(err))
	}

	if !hit {
		rows, err := f.uow.Tags().ListAll(ctx)
		if err != nil {
			return nil, err
		}
		tags = make([]models.Tag, 0, len(rows))
		for _, t := range rows {
			tags = append(tags, *t)
		}
		if err := f.cache.SetTags(ctx, tags); err != nil {
			f.logger.Warn("Tag cache write failed", zap.Error(err))
		}
	}

	out := make([]dto.TagDTO, 0, len(tags))
	for i := range tags {
		out = append(out, ToTagDTO(&tags[i]))
	}
	return out, nil
}

// CreateTag adds a tag whose name is unique ignoring case
func (f *TagFlowImpl) CreateTag(ctx context.Context, name string) (_ *dto.TagDTO, err error) {
	defer func() { observe("create_tag", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation(MsgTagNameRequired)
	}

	tag := &models.Tag{Name: name}
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		existing, err := f.uow.Tags().ByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return Conflict(MsgTagExists)
		}

		work.Add(tag)
		return completeOrFail(ctx, work, "Problem creating tag.")
	})
	if err != nil {
		if IsConflict(err) {
			// a concurrent insert tripped the unique index
			return nil, Conflict(MsgTagExists)
		}
		return nil, err
	}

	f.invalidateCache(ctx)
	f.recorder.committed(ctx, auditEntry{
		action:      models.AuditActionTagCreated,
		description: "Tag created",
		tags:        []string{tag.Name},
	})

	out := ToTagDTO(tag)
	return &out, nil
}

// RemoveTagByName deletes a tag and, through the cascade, its assignments
func (f *TagFlowImpl) RemoveTagByName(ctx context.Context, name string) (err error) {
	defer func() { observe("delete_tag", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return Validation(MsgTagNameRequired)
	}

	var deleted *models.Tag
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		tag, err := f.uow.Tags().ByName(ctx, name)
		if err != nil {
			return err
		}
		if tag == nil {
			return NotFound(MsgTagNotFound)
		}

		work.Remove(tag)
		if err := completeOrFail(ctx, work, "Problem deleting tag."); err != nil {
			return err
		}
		deleted = tag
		return nil
	})
	if err != nil {
		return err
	}

	f.invalidateCache(ctx)
	f.recorder.committed(ctx, auditEntry{
		action:      models.AuditActionTagDeleted,
		description: "Tag deleted",
		tags:        []string{deleted.Name},
	})
	return nil
}

// GetPhotoTags lists the tag names on a photo, pending or approved
func (f *TagFlowImpl) GetPhotoTags(ctx context.Context, photoID uint) (*dto.PhotoTagsDTO, error) {
	photo, err := f.uow.Photos().ByIDIncludingPending(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, NotFound(MsgPhotoNotFound)
	}
	rows, err := f.uow.PhotoTags().ListByPhoto(ctx, photo.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, pt := range rows {
		if pt.Tag != nil {
			names = append(names, pt.Tag.Name)
		}
	}
	return &dto.PhotoTagsDTO{PhotoID: photo.ID, Tags: names}, nil
}

func (f *TagFlowImpl) invalidateCache(ctx context.Context) {
	if err := f.cache.Invalidate(ctx); err != nil {
		f.logger.Warn("Tag cache invalidation failed", zap.Error(err))
	}
}
