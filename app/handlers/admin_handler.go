package handlers

import (
	"net/url"
	"strings"

	"github.com/amirphl/photo-moderation/app/dto"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandlerInterface defines the moderator and administrator endpoints
type AdminHandlerInterface interface {
	ApprovePhoto(c fiber.Ctx) error
	RejectPhoto(c fiber.Ctx) error
	GetPhotosForApproval(c fiber.Ctx) error
	GetPhotoApprovalStats(c fiber.Ctx) error
	ExportPhotoApprovalStats(c fiber.Ctx) error
	GetUsersWithoutMainPhoto(c fiber.Ctx) error
	GetPhotoHistory(c fiber.Ctx) error
	GetActorActivity(c fiber.Ctx) error
	EditRoles(c fiber.Ctx) error
	GetUsersWithRoles(c fiber.Ctx) error
	GetTags(c fiber.Ctx) error
	CreateTag(c fiber.Ctx) error
	DeleteTag(c fiber.Ctx) error
}

// AdminHandler serves the /admin routes
type AdminHandler struct {
	baseHandler
	moderation businessflow.PhotoModerationFlow
	roles      businessflow.RoleAdminFlow
	tags       businessflow.TagFlow
}

func NewAdminHandler(
	moderation businessflow.PhotoModerationFlow,
	roles businessflow.RoleAdminFlow,
	tags businessflow.TagFlow,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(logger),
		moderation:  moderation,
		roles:       roles,
		tags:        tags,
	}
}

// ApprovePhoto
// @Summary Approve a pending photo
// @Description Approves the photo. It becomes the owner's main photo when the owner has none.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} dto.APIResponse "Photo approved"
// @Failure 400 {object} dto.APIResponse "Invalid photo id"
// @Failure 403 {object} dto.APIResponse "Admin or Moderator role required"
// @Failure 404 {object} dto.APIResponse "Photo or owner not found"
// @Failure 500 {object} dto.APIResponse "Problem approving photo"
// @Router /api/v1/admin/approve-photo/{id} [post]
func (h *AdminHandler) ApprovePhoto(c fiber.Ctx) error {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/approve-photo")
	defer cancel()

	if err := h.moderation.ApprovePhoto(ctx, photoID); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgApproveFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo approved", nil)
}

// RejectPhoto
// @Summary Reject a photo
// @Description Deletes a non-main photo and its stored image.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} dto.APIResponse "Photo rejected"
// @Failure 400 {object} dto.APIResponse "This photo cannot be rejected"
// @Failure 502 {object} dto.APIResponse "Photo storage is unavailable"
// @Router /api/v1/admin/reject-photo/{id} [delete]
func (h *AdminHandler) RejectPhoto(c fiber.Ctx) error {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return h.invalidParam(c, "photo id")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/reject-photo")
	defer cancel()

	if err := h.moderation.RejectPhoto(ctx, photoID); err != nil {
		return h.handleFlowError(c, err, businessflow.MsgRejectFailed)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo rejected", nil)
}

// GetPhotosForApproval
// @Summary List pending photos
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PhotoForApprovalDTO}
// @Router /api/v1/admin/photos-to-moderate [get]
func (h *AdminHandler) GetPhotosForApproval(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/photos-to-moderate")
	defer cancel()

	photos, err := h.moderation.GetPhotosForApproval(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list photos")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photos retrieved", photos)
}

// GetPhotoApprovalStats
// @Summary Approved and pending photo counts per user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PhotoApprovalStatDTO}
// @Failure 404 {object} dto.APIResponse "No photo stats found"
// @Router /api/v1/admin/photo-stats [get]
func (h *AdminHandler) GetPhotoApprovalStats(c fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/photo-stats")
	defer cancel()

	stats, err := h.moderation.GetPhotoApprovalStats(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to load photo stats")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo stats retrieved", stats)
}

// ExportPhotoApprovalStats
// @Summary Download photo stats as an Excel workbook
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 404 {object} dto.APIResponse "No photo stats found"
// @Router /api/v1/admin/photo-stats/export [get]
func (h *AdminHandler) ExportPhotoApprovalStats(c fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/photo-stats/export")
	defer cancel()

	filename, data, err := h.moderation.ExportPhotoApprovalStats(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to export photo stats")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(filename)
	return c.Status(fiber.StatusOK).Send(data)
}

// GetUsersWithoutMainPhoto
// @Summary Usernames that have no main photo
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]string}
// @Failure 404 {object} dto.APIResponse "No users without main photo found"
// @Router /api/v1/admin/users-without-main-photo [get]
func (h *AdminHandler) GetUsersWithoutMainPhoto(c fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/users-without-main-photo")
	defer cancel()

	names, err := h.moderation.GetUsersWithoutMainPhoto(ctx, userID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list users")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Users retrieved", names)
}

// GetPhotoHistory
// @Summary Audit trail of a photo
// @Description Lists audit entries for the photo, newest first. Entries remain after the photo is deleted.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} dto.APIResponse{data=[]dto.AuditEntryDTO}
// @Failure 400 {object} dto.APIResponse "Invalid photo id"
// @Router /api/v1/admin/photo-history/{id} [get]
func (h *AdminHandler) GetPhotoHistory(c fiber.Ctx) error {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return h.invalidParam(c, "photo id")
	}
	page, ok := parsePageQuery(c)
	if !ok {
		return h.invalidParam(c, "page")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/photo-history")
	defer cancel()

	entries, err := h.moderation.GetPhotoHistory(ctx, photoID, page)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to load photo history")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo history retrieved", entries)
}

// GetActorActivity
// @Summary Audit entries produced by a user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} dto.APIResponse{data=[]dto.AuditEntryDTO}
// @Failure 400 {object} dto.APIResponse "Invalid user id"
// @Router /api/v1/admin/user-activity/{userId} [get]
func (h *AdminHandler) GetActorActivity(c fiber.Ctx) error {
	actorID, ok := parseIDParam(c, "userId")
	if !ok {
		return h.invalidParam(c, "user id")
	}
	page, ok := parsePageQuery(c)
	if !ok {
		return h.invalidParam(c, "page")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/user-activity")
	defer cancel()

	entries, err := h.moderation.GetActorActivity(ctx, actorID, page)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to load user activity")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User activity retrieved", entries)
}

// EditRoles
// @Summary Replace a user's roles
// @Description Sets the user's roles to the comma separated list in the roles query parameter.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param roles query string true "Comma separated role names"
// @Success 200 {object} dto.APIResponse{data=[]string} "Resulting roles"
// @Failure 400 {object} dto.APIResponse "No roles given or a role change was refused"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/admin/edit-roles/{username} [post]
func (h *AdminHandler) EditRoles(c fiber.Ctx) error {
	username, err := url.PathUnescape(c.Params("username"))
	if err != nil || strings.TrimSpace(username) == "" {
		return h.invalidParam(c, "username")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/edit-roles")
	defer cancel()

	roles, err := h.roles.EditRoles(ctx, strings.ToLower(username), c.Query("roles"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to edit roles")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Roles updated", roles)
}

// GetUsersWithRoles
// @Summary List users with their roles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserRolesDTO}
// @Router /api/v1/admin/users-with-roles [get]
func (h *AdminHandler) GetUsersWithRoles(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/users-with-roles")
	defer cancel()

	users, err := h.roles.GetUsersWithRoles(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list users")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Users retrieved", users)
}

// GetTags
// @Summary List all tags
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.TagDTO}
// @Router /api/v1/admin/tags [get]
func (h *AdminHandler) GetTags(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/tags")
	defer cancel()

	tags, err := h.tags.GetTags(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list tags")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved", tags)
}

// CreateTag
// @Summary Create a tag
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTagRequest true "Tag"
// @Success 201 {object} dto.APIResponse{data=dto.TagDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Tag already exists"
// @Router /api/v1/admin/create-tag [post]
func (h *AdminHandler) CreateTag(c fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.validationFailed(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/create-tag")
	defer cancel()

	tag, err := h.tags.CreateTag(ctx, req.TagName)
	if err != nil {
		return h.handleFlowError(c, err, "Problem creating tag.")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Tag created", tag)
}

// DeleteTag
// @Summary Delete a tag and its photo assignments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param name path string true "Tag name"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Tag not found"
// @Router /api/v1/admin/delete-tag/{name} [delete]
func (h *AdminHandler) DeleteTag(c fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return h.invalidParam(c, "tag name")
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/delete-tag")
	defer cancel()

	if err := h.tags.RemoveTagByName(ctx, name); err != nil {
		return h.handleFlowError(c, err, "Problem deleting tag.")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tag deleted", nil)
}
