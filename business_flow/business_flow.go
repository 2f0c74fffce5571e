package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClientMetadata holds request information recorded with audit entries
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
	Username  string `json:"username,omitempty"`
	UserID    uint   `json:"user_id,omitempty"`
}

// MetadataFromContext collects what the HTTP layer stored in ctx
func MetadataFromContext(ctx context.Context) *ClientMetadata {
	m := &ClientMetadata{}
	m.IPAddress, _ = ctx.Value(utils.IPAddressKey).(string)
	m.UserAgent, _ = ctx.Value(utils.UserAgentKey).(string)
	m.RequestID, _ = ctx.Value(utils.RequestIDKey).(string)
	m.Username, _ = ctx.Value(utils.UsernameKey).(string)
	m.UserID, _ = ctx.Value(utils.UserIDKey).(uint)
	return m
}

// auditEntry describes a committed change for the audit log and the event stream
type auditEntry struct {
	action       string
	eventType    string
	description  string
	photoID      *uint
	targetUserID *uint
	username     string
	tags         []string
	roles        []string
}

// recorder runs the best-effort work that follows a commit
type recorder struct {
	auditRepo repository.AuditLogRepository
	publisher services.EventPublisher
	logger    *zap.Logger
}

func newRecorder(auditRepo repository.AuditLogRepository, publisher services.EventPublisher, logger *zap.Logger) recorder {
	if publisher == nil {
		publisher = services.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return recorder{auditRepo: auditRepo, publisher: publisher, logger: logger}
}

// committed writes the audit entry and publishes the event. Failures are logged only.
func (r recorder) committed(ctx context.Context, e auditEntry) {
	meta := MetadataFromContext(ctx)

	if r.auditRepo != nil {
		if err := r.auditRepo.Save(ctx, buildAuditLog(meta, e)); err != nil {
			r.logger.Warn("Failed to write audit log", zap.String("action", e.action), zap.Error(err))
		}
	}

	if e.eventType == "" {
		return
	}
	event := services.ModerationEvent{
		ID:         uuid.NewString(),
		Type:       e.eventType,
		PhotoID:    e.photoID,
		UserID:     e.targetUserID,
		Username:   e.username,
		Actor:      meta.Username,
		Tags:       e.tags,
		Roles:      e.roles,
		RequestID:  meta.RequestID,
		OccurredAt: utils.UTCNow(),
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("Failed to publish moderation event", zap.String("type", e.eventType), zap.Error(err))
	}
}

func buildAuditLog(meta *ClientMetadata, e auditEntry) *models.AuditLog {
	audit := &models.AuditLog{
		Action:       e.action,
		PhotoID:      e.photoID,
		TargetUserID: e.targetUserID,
		Description:  utils.ToPtr(e.description),
		Success:      utils.ToPtr(true),
	}
	if meta.UserID != 0 {
		audit.ActorID = utils.ToPtr(meta.UserID)
	}
	if meta.Username != "" {
		audit.ActorUsername = utils.ToPtr(meta.Username)
	}
	if meta.IPAddress != "" {
		audit.IPAddress = utils.ToPtr(meta.IPAddress)
	}
	if meta.RequestID != "" {
		audit.RequestID = utils.ToPtr(meta.RequestID)
	}

	extra := map[string]any{}
	if meta.UserAgent != "" {
		extra["user_agent"] = meta.UserAgent
	}
	if len(e.tags) > 0 {
		extra["tags"] = e.tags
	}
	if len(e.roles) > 0 {
		extra["roles"] = e.roles
	}
	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			audit.Metadata = datatypes.JSON(raw)
		}
	}
	return audit
}

// completeOrFail flushes work and turns both a storage error and a no-op commit into a persistence failure
func completeOrFail(ctx context.Context, work repository.Work, message string) error {
	ok, err := work.Complete(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return NewBusinessError(CodeConflict, message, err)
		}
		return PersistenceFailure(message, err)
	}
	if !ok {
		return PersistenceFailure(message, nil)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tagNames(photo *models.Photo) []string {
	names := make([]string, 0, len(photo.PhotoTags))
	for _, pt := range photo.PhotoTags {
		if pt.Tag != nil {
			names = append(names, pt.Tag.Name)
		}
	}
	return names
}

// ToPhotoDTO converts an owned photo to its API form
func ToPhotoDTO(photo *models.Photo) dto.PhotoDTO {
	return dto.PhotoDTO{
		ID:         photo.ID,
		URL:        photo.URL,
		IsMain:     photo.IsMain,
		IsApproved: photo.IsApproved,
		Tags:       tagNames(photo),
		CreatedAt:  formatTime(photo.CreatedAt),
	}
}

func ToTagDTO(tag *models.Tag) dto.TagDTO {
	return dto.TagDTO{ID: tag.ID, Name: tag.Name, CreatedAt: formatTime(tag.CreatedAt)}
}

func ToMessageDTO(m *models.Message) dto.MessageDTO {
	out := dto.MessageDTO{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		Content:           m.Content,
		SentAt:            formatTime(m.SentAt),
	}
	if m.DateRead != nil {
		out.DateRead = utils.ToPtr(formatTime(*m.DateRead))
	}
	return out
}

func ToAuditEntryDTO(a *models.AuditLog) dto.AuditEntryDTO {
	return dto.AuditEntryDTO{
		ID:            a.ID,
		Action:        a.Action,
		ActorUsername: a.ActorUsername,
		PhotoID:       a.PhotoID,
		TargetUserID:  a.TargetUserID,
		Description:   a.Description,
		RequestID:     a.RequestID,
		Moderation:    a.IsModerationEvent(),
		Failed:        a.IsFailed(),
		CreatedAt:     formatTime(a.CreatedAt),
	}
}
