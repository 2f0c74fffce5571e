package handlers

import (
	"net/url"

	"github.com/amirphl/photo-moderation/app/dto"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// SocialHandlerInterface defines the like and message endpoints
type SocialHandlerInterface interface {
	ToggleLike(c fiber.Ctx) error
	GetLikedUserIDs(c fiber.Ctx) error
	CreateMessage(c fiber.Ctx) error
	GetMessageThread(c fiber.Ctx) error
	DeleteMessage(c fiber.Ctx) error
}

type SocialHandler struct {
	baseHandler
	likes    businessflow.LikeFlow
	messages businessflow.MessageFlow
}

func NewSocialHandler(likes businessflow.LikeFlow, messages businessflow.MessageFlow, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		baseHandler: newBaseHandler(logger),
		likes:       likes,
		messages:    messages,
	}
}

// ToggleLike
// @Summary Like a user, or remove an existing like
// @Tags Social
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Target user ID"
// @Success 200 {object} dto.APIResponse{data=dto.LikeResultDTO}
// @Failure 400 {object} dto.APIResponse "You cannot like yourself"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/likes/{userId} [post]
func (h *SocialHandler) ToggleLike(c fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return h.invalidParam(c, "user id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/likes")
	defer cancel()

	result, err := h.likes.ToggleLike(ctx, userID, targetID)
	if err != nil {
		return h.handleFlowError(c, err, businessflow.MsgLikeFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Like updated", result)
}

// GetLikedUserIDs
// @Summary IDs of the users you liked
// @Tags Social
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]int}
// @Router /api/v1/likes/ids [get]
func (h *SocialHandler) GetLikedUserIDs(c fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/likes/ids")
	defer cancel()

	ids, err := h.likes.GetLikedUserIDs(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list likes")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Likes retrieved", ids)
}

// CreateMessage
// @Summary Send a direct message
// @Tags Social
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.MessageDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Recipient not found"
// @Router /api/v1/messages [post]
func (h *SocialHandler) CreateMessage(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	var req dto.CreateMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages")
	defer cancel()

	msg, err := h.messages.CreateMessage(ctx, username, req.RecipientUsername, req.Content)
	if err != nil {
		return h.handleFlowError(c, err, businessflow.MsgMessageSaveFailed)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Message sent", msg)
}

// GetMessageThread
// @Summary Conversation with another user, oldest first
// @Tags Social
// @Produce json
// @Security BearerAuth
// @Param username path string true "Other username"
// @Success 200 {object} dto.APIResponse{data=[]dto.MessageDTO}
// @Router /api/v1/messages/thread/{username} [get]
func (h *SocialHandler) GetMessageThread(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	other, err := url.PathUnescape(c.Params("username"))
	if err != nil || other == "" {
		return h.invalidParam(c, "username")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages/thread")
	defer cancel()

	thread, err := h.messages.GetMessageThread(ctx, username, other)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to load messages")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Messages retrieved", thread)
}

// DeleteMessage
// @Summary Delete a message on your side of the conversation
// @Tags Social
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse "Not a party to the message"
// @Failure 404 {object} dto.APIResponse "Message not found"
// @Router /api/v1/messages/{id} [delete]
func (h *SocialHandler) DeleteMessage(c fiber.Ctx) error {
	_, username, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}
	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return h.invalidParam(c, "message id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/messages")
	defer cancel()

	if err := h.messages.DeleteMessage(ctx, username, messageID); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgMessageDeleteFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Message deleted", nil)
}
