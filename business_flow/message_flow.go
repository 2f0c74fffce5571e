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

// MessageFlow sends, reads and deletes direct messages
type MessageFlow interface {
	CreateMessage(ctx context.Context, senderUsername, recipientUsername, content string) (*dto.MessageDTO, error)
	GetMessageThread(ctx context.Context, currentUsername, otherUsername string) ([]dto.MessageDTO, error)
	DeleteMessage(ctx context.Context, username string, messageID uint) error
}

type MessageFlowImpl struct {
	uow      repository.UnitOfWork
	recorder recorder
	logger   *zap.Logger
}

func NewMessageFlow(
	uow repository.UnitOfWork,
	auditRepo repository.AuditLogRepository,
	publisher services.EventPublisher,
	logger *zap.Logger,
) MessageFlow {
	rec := newRecorder(auditRepo, publisher, logger)
	return &MessageFlowImpl{uow: uow, recorder: rec, logger: rec.logger}
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (f *MessageFlowImpl) CreateMessage(ctx context.Context, senderUsername, recipientUsername, content string) (_ *dto.MessageDTO, err error) {
	defer func() { observe("create_message", err) }()

	senderUsername = normalizeUsername(senderUsername)
	recipientUsername = normalizeUsername(recipientUsername)
	if senderUsername == recipientUsername {
		return nil, InvalidOperation(MsgCannotMessageSelf)
	}
	if strings.TrimSpace(content) == "" {
		return nil, Validation("Message content is required.")
	}

	msg := &models.Message{Content: content, SentAt: utils.UTCNow()}
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		sender, err := f.uow.Users().ByUsername(ctx, senderUsername)
		if err != nil {
			return err
		}
		recipient, err := f.uow.Users().ByUsername(ctx, recipientUsername)
		if err != nil {
			return err
		}
		if sender == nil || recipient == nil {
			return NotFound(MsgMessagePartyNotFound)
		}

		msg.SenderID, msg.SenderUsername = sender.ID, sender.Username
		msg.RecipientID, msg.RecipientUsername = recipient.ID, recipient.Username
		work.Add(msg)
		return completeOrFail(ctx, work, MsgMessageSaveFailed)
	})
	if err != nil {
		return nil, err
	}

	// content stays out of the audit trail
	f.recorder.committed(ctx, auditEntry{
		action:       models.AuditActionMessageSent,
		description:  "Message sent",
		targetUserID: utils.ToPtr(msg.RecipientID),
		username:     msg.RecipientUsername,
	})
	f.logger.Debug("Message sent", zap.Uint("message_id", msg.ID), zap.String("sender", msg.SenderUsername))

	out := ToMessageDTO(msg)
	return &out, nil
}

// GetMessageThread returns the conversation oldest first and marks the
// viewer's unread incoming messages as read
func (f *MessageFlowImpl) GetMessageThread(ctx context.Context, currentUsername, otherUsername string) ([]dto.MessageDTO, error) {
	currentUsername = normalizeUsername(currentUsername)
	otherUsername = normalizeUsername(otherUsername)

	var messages []*models.Message
	err := f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		var err error
		messages, err = f.uow.Messages().ListThread(ctx, currentUsername, otherUsername)
		if err != nil {
			return err
		}

		now := utils.UTCNow()
		for _, m := range messages {
			if m.DateRead == nil && m.RecipientUsername == currentUsername {
				m.DateRead = utils.ToPtr(now)
				work.Update(m)
			}
		}
		if !work.HasChanges() {
			return nil
		}
		if _, err := work.Complete(ctx); err != nil {
			return PersistenceFailure("Problem reading messages.", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToMessageDTO(m))
	}
	return out, nil
}

// DeleteMessage hides the message for the caller and removes it once both parties deleted it
func (f *MessageFlowImpl) DeleteMessage(ctx context.Context, username string, messageID uint) (err error) {
	defer func() { observe("delete_message", err) }()

	username = normalizeUsername(username)
	removed := false
	err = f.uow.Run(ctx, func(ctx context.Context, work repository.Work) error {
		msg, err := f.uow.Messages().ByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg == nil {
			return NotFound(MsgMessageNotFound)
		}
		if !msg.IsParty(username) {
			return Unauthorized(MsgMessageNotAuthorized)
		}

		if msg.SenderUsername == username {
			msg.SenderDeleted = true
		}
		if msg.RecipientUsername == username {
			msg.RecipientDeleted = true
		}

		if msg.SenderDeleted && msg.RecipientDeleted {
			work.Remove(msg)
			removed = true
		} else {
			work.Update(msg)
		}
		return completeOrFail(ctx, work, MsgMessageDeleteFailed)
	})
	if err != nil {
		return err
	}

	description := "Message hidden for " + username
	if removed {
		description = "Message removed"
	}
	f.recorder.committed(ctx, auditEntry{action: models.AuditActionMessageDeleted, description: description})
	f.logger.Debug(description, zap.Uint("message_id", messageID))
	return nil
}
